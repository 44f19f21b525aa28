// Package report renders downloadable prediction reports.
package report

import (
	"fmt"
	"strings"

	"github.com/mcules/student-success/internal/outcome"
	"github.com/mcules/student-success/internal/student"
)

// TextFileName is the attachment name of the plain-text report.
const TextFileName = "student_prediction_report.txt"

// Text renders the plain-text report for one student and its predicted
// outcome.
func Text(r student.Record, kind outcome.Kind) string {
	var b strings.Builder
	line := func(label, field string) {
		f, _ := student.Lookup(field)
		fmt.Fprintf(&b, "- %s: %s\n", label, f.OptionLabel(f.Get(&r)))
	}

	b.WriteString("Student Success Prediction Report\n")
	b.WriteString("===============================\n\n")

	b.WriteString("Academic Information:\n")
	line("Application Mode", student.ColApplicationMode)
	line("Course", student.ColCourse)
	line("Previous Qualification Grade", student.ColPrevQualGrade)
	line("Mother's Qualification", student.ColMothersQualification)
	line("Father's Qualification", student.ColFathersQualification)

	b.WriteString("\nPersonal Information:\n")
	line("Mother's Occupation", student.ColMothersOccupation)
	line("Father's Occupation", student.ColFathersOccupation)
	line("Admission Grade", student.ColAdmissionGrade)
	line("Age at Enrollment", student.ColAgeAtEnrollment)
	line("Gender", student.ColGender)
	line("Displaced", student.ColDisplaced)
	line("Scholarship Holder", student.ColScholarshipHolder)

	b.WriteString("\nAcademic Performance:\nFirst Semester:\n")
	line("Units Enrolled", student.ColUnits1stEnrolled)
	line("Units Evaluated", student.ColUnits1stEvaluations)
	line("Units Approved", student.ColUnits1stApproved)

	b.WriteString("\nSecond Semester:\n")
	line("Units Enrolled", student.ColUnits2ndEnrolled)
	line("Units Evaluated", student.ColUnits2ndEvaluations)
	line("Units Approved", student.ColUnits2ndApproved)

	fmt.Fprintf(&b, "\nPrediction: %s\n", kind.Label())
	return b.String()
}
