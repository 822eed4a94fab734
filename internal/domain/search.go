package domain

import (
	"errors"
	"fmt"
)

// CallStatus - исход одного вызова поиска
type CallStatus int

const (
	CallSucceeded CallStatus = iota
	CallEmpty
	CallFailed
	CallUnsupported
)

func (s CallStatus) String() string {
	switch s {
	case CallSucceeded:
		return "succeeded"
	case CallEmpty:
		return "empty"
	case CallFailed:
		return "failed"
	case CallUnsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

func (s CallStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CallResult - результат одного обращения к источнику
type CallResult struct {
	Method  string
	Status  CallStatus
	Results []RawResult
	Err     error
}

// NewCallResult раскладывает пару (results, err) в CallResult
func NewCallResult(method string, results []RawResult, err error) CallResult {
	switch {
	case errors.Is(err, ErrMissingCapability):
		return CallResult{Method: method, Status: CallUnsupported, Err: err}
	case err != nil:
		return CallResult{Method: method, Status: CallFailed, Err: fmt.Errorf("%w: %s: %w", ErrSubSearchFailure, method, err)}
	case len(results) == 0:
		return CallResult{Method: method, Status: CallEmpty}
	default:
		return CallResult{Method: method, Status: CallSucceeded, Results: results}
	}
}

// Unsupported - метод не предоставлен источником
func Unsupported(method string) CallResult {
	return CallResult{
		Method: method,
		Status: CallUnsupported,
		Err:    fmt.Errorf("%w: %s", ErrMissingCapability, method),
	}
}

// TraceEntry - одна запись журнала решений оркестратора
type TraceEntry struct {
	Strategy string     `json:"strategy"`
	Method   string     `json:"method,omitempty"`
	Status   CallStatus `json:"status"`
	Found    int        `json:"found"`
	Kept     int        `json:"kept"`
	Error    string     `json:"error,omitempty"`
	Note     string     `json:"note,omitempty"`
}

// SearchTrace - что запускалось, что вернулось и что пропущено
type SearchTrace struct {
	Extent       BoundingExtent `json:"extent"`
	Entries      []TraceEntry   `json:"entries"`
	Skipped      []string       `json:"skipped,omitempty"`
	StoppedAfter string         `json:"stopped_after,omitempty"`
	RawCount     int            `json:"raw_count"`
	Aborted      bool           `json:"aborted,omitempty"`
}

// Record добавляет результат вызова в журнал
func (t *SearchTrace) Record(strategy string, res CallResult, kept int) {
	entry := TraceEntry{
		Strategy: strategy,
		Method:   res.Method,
		Status:   res.Status,
		Found:    len(res.Results),
		Kept:     kept,
	}
	if res.Err != nil {
		entry.Error = res.Err.Error()
	}
	t.Entries = append(t.Entries, entry)
}

// Note добавляет пояснение без вызова источника
func (t *SearchTrace) Note(strategy, note string) {
	t.Entries = append(t.Entries, TraceEntry{Strategy: strategy, Status: CallEmpty, Note: note})
}

// Failures - сколько вызовов завершились ошибкой или не поддерживаются
func (t *SearchTrace) Failures() int {
	n := 0
	for _, e := range t.Entries {
		if e.Status == CallFailed || e.Status == CallUnsupported {
			n++
		}
	}
	return n
}

// Calls - сколько было обращений к источнику
func (t *SearchTrace) Calls() int {
	n := 0
	for _, e := range t.Entries {
		if e.Method != "" {
			n++
		}
	}
	return n
}
