package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Enrollments counts successful enrollments.
var Enrollments = promauto.NewCounter(prometheus.CounterOpts{
	Name: "eventra_enrollments_total",
	Help: "Successful event enrollments.",
})

// EnrollmentRejections counts enrollments rejected as duplicates.
var EnrollmentRejections = promauto.NewCounter(prometheus.CounterOpts{
	Name: "eventra_enrollment_rejections_total",
	Help: "Enrollments rejected by the duplicate constraint.",
})

// AttendanceMarks counts attendance marks by resulting status.
var AttendanceMarks = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "eventra_attendance_marks_total",
	Help: "Attendance marks by status.",
}, []string{"status"})
