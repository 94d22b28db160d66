package deck

// Renderable is implemented by every slide variant the renderer knows how to draw.
type Renderable interface {
	Kind() SlideType
	templateName() string
}

// TitleSlide opens a deck.
type TitleSlide struct {
	Title    string
	Subtitle string
}

// ProblemSlide lists the client's pain points.
type ProblemSlide struct {
	Title  string
	Points []string
}

// SolutionSlide describes the offer and its benefits.
type SolutionSlide struct {
	Title       string
	Description string
	Points      []string
}

// FeaturesSlide is a grid of named features.
type FeaturesSlide struct {
	Title    string
	Features []Feature
}

// UseCaseSlide applies the offer to the client's industry.
type UseCaseSlide struct {
	Title       string
	Description string
}

// ROISlide shows value metrics.
type ROISlide struct {
	Title   string
	Metrics []Metric
}

// CTASlide closes a deck with a call to action.
type CTASlide struct {
	Title       string
	Description string
	Action      string
}

func (TitleSlide) Kind() SlideType    { return TypeTitle }
func (ProblemSlide) Kind() SlideType  { return TypeProblem }
func (SolutionSlide) Kind() SlideType { return TypeSolution }
func (FeaturesSlide) Kind() SlideType { return TypeFeatures }
func (UseCaseSlide) Kind() SlideType  { return TypeUseCase }
func (ROISlide) Kind() SlideType      { return TypeROI }
func (CTASlide) Kind() SlideType      { return TypeCTA }

func (TitleSlide) templateName() string    { return "slide-title" }
func (ProblemSlide) templateName() string  { return "slide-problem" }
func (SolutionSlide) templateName() string { return "slide-solution" }
func (FeaturesSlide) templateName() string { return "slide-features" }
func (UseCaseSlide) templateName() string  { return "slide-use-case" }
func (ROISlide) templateName() string      { return "slide-roi" }
func (CTASlide) templateName() string      { return "slide-cta" }

// Variant projects the slide onto its typed variant. Unknown tags yield
// (nil, false) and are skipped by the renderer.
func (s Slide) Variant() (Renderable, bool) {
	switch s.Type {
	case TypeTitle:
		return TitleSlide{Title: s.Title, Subtitle: s.Subtitle}, true
	case TypeProblem:
		return ProblemSlide{Title: s.Title, Points: cloneStrings(s.Points)}, true
	case TypeSolution:
		return SolutionSlide{Title: s.Title, Description: s.Description, Points: cloneStrings(s.Points)}, true
	case TypeFeatures:
		return FeaturesSlide{Title: s.Title, Features: append([]Feature(nil), s.Features...)}, true
	case TypeUseCase:
		return UseCaseSlide{Title: s.Title, Description: s.Description}, true
	case TypeROI:
		return ROISlide{Title: s.Title, Metrics: append([]Metric(nil), s.Metrics...)}, true
	case TypeCTA:
		return CTASlide{Title: s.Title, Description: s.Description, Action: s.Action}, true
	default:
		return nil, false
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
