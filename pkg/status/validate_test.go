package status

import (
	"testing"

	. "github.com/onsi/gomega"
)

func TestValidate(t *testing.T) {
	var nilStatus *Status

	tests := []struct {
		name    string
		result  Result
		wantErr error
	}{
		{name: "active ok", result: NewActive(OK, "fine")},
		{name: "host up", result: NewHost(UP, "reachable")},
		{name: "service critical", result: NewService(CRITICAL, "broken")},
		{name: "default message passes", result: NewActive(WARNING, "")},
		{name: "nil interface", result: nil, wantErr: ErrMalformedResult},
		{name: "typed nil", result: nilStatus, wantErr: ErrMalformedResult},
		{name: "zero status", result: &Status{}, wantErr: ErrMalformedResult},
		{
			name:    "severity bypassing setter",
			result:  &Status{kind: KindActive, severity: "BOGUS", code: 0, message: "x"},
			wantErr: ErrInvalidSeverity,
		},
		{
			name:    "host severity on active result",
			result:  &Status{kind: KindActive, severity: UP, code: 0, message: "x"},
			wantErr: ErrInvalidSeverity,
		},
		{
			name:    "service severity on host result",
			result:  &Status{kind: KindHost, severity: OK, code: 0, message: "x"},
			wantErr: ErrInvalidSeverity,
		},
		{
			name:    "active code mismatch",
			result:  &Status{kind: KindActive, severity: CRITICAL, code: 1, message: "x"},
			wantErr: ErrInvalidProtocolCode,
		},
		{
			name:    "host checked against host codes",
			result:  &Status{kind: KindHost, severity: UNREACHABLE, code: 3, message: "x"},
			wantErr: ErrInvalidProtocolCode,
		},
		{
			name:    "empty message",
			result:  &Status{kind: KindService, severity: OK, code: 0, message: ""},
			wantErr: ErrEmptyMessage,
		},
		{
			name:    "blank message",
			result:  &Status{kind: KindHost, severity: DOWN, code: 1, message: " \t"},
			wantErr: ErrEmptyMessage,
		},
		{
			name:    "severity checked before code",
			result:  &Status{kind: KindActive, severity: "BOGUS", code: 99, message: ""},
			wantErr: ErrInvalidSeverity,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			RegisterTestingT(t)
			err := Validate(test.result)
			if test.wantErr == nil {
				Expect(err).NotTo(HaveOccurred())
				return
			}
			Expect(err).To(MatchError(test.wantErr))
		})
	}
}

func TestValidateAfterSetMessage(t *testing.T) {
	RegisterTestingT(t)

	s := NewActive(OK, "fine")
	s.SetMessage("")
	Expect(Validate(s)).To(MatchError(ErrEmptyMessage))
}
