// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"testing"
)

func TestModuleName_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		mod  ModuleName
		want bool
	}{
		{"simple name", ModuleName("requests"), true},
		{"underscored name", ModuleName("dateutil_tz"), true},
		{"hyphenated dist name", ModuleName("scikit-learn"), true},
		{"empty is invalid", ModuleName(""), false},
		{"dotted path is invalid", ModuleName("os.path"), false},
		{"whitespace is invalid", ModuleName("req uests"), false},
		{"path separator is invalid", ModuleName("../etc"), false},
		{"backslash is invalid", ModuleName(`foo\bar`), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, errs := tt.mod.IsValid()
			if got != tt.want {
				t.Errorf("IsValid() = %v, want %v (errs: %v)", got, tt.want, errs)
			}
			if !tt.want {
				if len(errs) == 0 {
					t.Fatal("IsValid() returned no errors for invalid value")
				}
				if !errors.Is(errs[0], ErrInvalidModuleName) {
					t.Errorf("error %v does not wrap ErrInvalidModuleName", errs[0])
				}
			}
		})
	}
}

func TestExitCode_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		code    ExitCode
		wantErr bool
	}{
		{"zero is success", ExitCode(0), false},
		{"one is valid", ExitCode(1), false},
		{"max is valid", ExitCode(255), false},
		{"negative is invalid", ExitCode(-1), true},
		{"above max is invalid", ExitCode(256), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.code.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidExitCode) {
				t.Errorf("error %v does not wrap ErrInvalidExitCode", err)
			}
		})
	}
}

func TestAttemptCount_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		n    AttemptCount
		want bool
	}{
		{"one attempt", AttemptCount(1), true},
		{"three attempts", AttemptCount(3), true},
		{"zero is invalid", AttemptCount(0), false},
		{"negative is invalid", AttemptCount(-2), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, errs := tt.n.IsValid()
			if got != tt.want {
				t.Errorf("IsValid() = %v, want %v (errs: %v)", got, tt.want, errs)
			}
		})
	}
}

func TestRetryDelay_IsValid(t *testing.T) {
	t.Parallel()

	if ok, _ := RetryDelay(0).IsValid(); !ok {
		t.Error("zero delay should be valid")
	}
	if ok, _ := RetryDelay(-1).IsValid(); ok {
		t.Error("negative delay should be invalid")
	}
}
