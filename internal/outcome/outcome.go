package outcome

import "fmt"

type Kind string

const (
	Dropout   Kind = "dropout"
	Enrolled  Kind = "enrolled"
	Graduate  Kind = "graduate"
	AtRisk    Kind = "at_risk"
	NotAtRisk Kind = "not_at_risk"
)

type Task string

const (
	TaskMulticlass Task = "multiclass"
	TaskBinary     Task = "binary"
)

// Severity selects the styling of a result.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeveritySuccess Severity = "success"
)

// FromIndex maps a predicted class index to its kind. Multiclass models use
// the ordinal order Dropout, Enrolled, Graduate; any index above one is
// Graduate. Binary models flag index 1 as dropout risk.
func FromIndex(task Task, idx int) (Kind, error) {
	if idx < 0 {
		return "", fmt.Errorf("negative class index %d", idx)
	}
	switch task {
	case TaskBinary:
		if idx == 1 {
			return AtRisk, nil
		}
		if idx == 0 {
			return NotAtRisk, nil
		}
		return "", fmt.Errorf("binary class index %d out of range", idx)
	case TaskMulticlass, "":
		switch idx {
		case 0:
			return Dropout, nil
		case 1:
			return Enrolled, nil
		default:
			return Graduate, nil
		}
	}
	return "", fmt.Errorf("unknown task %q", task)
}

func (k Kind) Severity() Severity {
	switch k {
	case Dropout, AtRisk:
		return SeverityError
	case Enrolled:
		return SeverityWarning
	default:
		return SeveritySuccess
	}
}

// Headline is the sentence shown above the recommendations.
func (k Kind) Headline() string {
	switch k {
	case Dropout:
		return "The student is predicted to Dropout"
	case Enrolled:
		return "The student is predicted to be Enrolled"
	case Graduate:
		return "The student is predicted to Graduate"
	case AtRisk:
		return "The student is at risk of dropping out"
	case NotAtRisk:
		return "The student is not at risk of dropping out"
	}
	return string(k)
}

// Label is the short class name used in reports.
func (k Kind) Label() string {
	switch k {
	case Dropout:
		return "Dropout"
	case Enrolled:
		return "Enrolled"
	case Graduate:
		return "Graduate"
	case AtRisk:
		return "Dropout risk"
	case NotAtRisk:
		return "No dropout risk"
	}
	return string(k)
}

var recommendations = map[Kind][]string{
	Dropout: {
		"Consider additional academic support",
		"Review course load and difficulty",
		"Check for personal or financial issues",
	},
	Enrolled: {
		"Continue current academic support",
		"Monitor progress regularly",
		"Maintain good study habits",
	},
	Graduate: {
		"Continue excellent performance",
		"Consider advanced courses",
		"Plan for post-graduation",
	},
}

// Recommendations returns the advice shown for a kind.
func Recommendations(k Kind) []string {
	switch k {
	case AtRisk:
		k = Dropout
	case NotAtRisk:
		k = Enrolled
	}
	src := recommendations[k]
	out := make([]string, len(src))
	copy(out, src)
	return out
}
