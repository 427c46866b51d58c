package model

// OutcomeStatus is the closed set of run results.
type OutcomeStatus string

const (
	StatusSuccess     OutcomeStatus = "SUCCESS"
	StatusSkipped     OutcomeStatus = "SKIPPED"
	StatusAlreadyDone OutcomeStatus = "ALREADY_DONE"
	StatusFailed      OutcomeStatus = "FAILED"
)

// FailureKind identifies why a run failed.
type FailureKind string

const (
	KindRecordNotFound      FailureKind = "RECORD_NOT_FOUND"
	KindRecordMarkedWeekend FailureKind = "RECORD_MARKED_WEEKEND"
	KindRecordMarkedHoliday FailureKind = "RECORD_MARKED_HOLIDAY"
	KindClockInFailed       FailureKind = "CLOCK_IN_FAILED"
	KindClockOutFailed      FailureKind = "CLOCK_OUT_FAILED"
	KindUnclassified        FailureKind = "UNCLASSIFIED"
)

// FailureClass groups failure kinds for reporting.
type FailureClass string

const (
	ClassRecord       FailureClass = "record"
	ClassClockIn      FailureClass = "clock_in"
	ClassClockOut     FailureClass = "clock_out"
	ClassUnclassified FailureClass = "unclassified"
)

// Class maps a kind onto its reporting class.
func (k FailureKind) Class() FailureClass {
	switch k {
	case KindRecordNotFound, KindRecordMarkedWeekend, KindRecordMarkedHoliday:
		return ClassRecord
	case KindClockInFailed:
		return ClassClockIn
	case KindClockOutFailed:
		return ClassClockOut
	default:
		return ClassUnclassified
	}
}

// Failure is a domain failure produced while validating or acting on a record.
type Failure struct {
	Kind    FailureKind
	Message string
}

func (f *Failure) Error() string {
	return f.Message
}

// Outcome is the result of one run.
type Outcome struct {
	Status    OutcomeStatus
	Direction ClockDirection
	Kind      FailureKind
	Message   string
	Record    AttendanceRecord
	DryRun    bool
}

func Succeeded(dir ClockDirection, rec AttendanceRecord) Outcome {
	return Outcome{Status: StatusSuccess, Direction: dir, Record: rec}
}

func Simulated(dir ClockDirection, rec AttendanceRecord) Outcome {
	return Outcome{Status: StatusSuccess, Direction: dir, Record: rec, DryRun: true}
}

func Skipped(dir ClockDirection, reason string) Outcome {
	return Outcome{Status: StatusSkipped, Direction: dir, Message: reason}
}

func AlreadyDone(dir ClockDirection, rec AttendanceRecord) Outcome {
	return Outcome{Status: StatusAlreadyDone, Direction: dir, Record: rec}
}

func Failed(dir ClockDirection, kind FailureKind, message string, rec AttendanceRecord) Outcome {
	return Outcome{Status: StatusFailed, Direction: dir, Kind: kind, Message: message, Record: rec}
}

// Failure returns the domain failure carried by a failed outcome, nil otherwise.
func (o Outcome) Failure() *Failure {
	if o.Status != StatusFailed {
		return nil
	}
	return &Failure{Kind: o.Kind, Message: o.Message}
}
