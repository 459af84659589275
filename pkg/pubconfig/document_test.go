// SPDX-License-Identifier: MPL-2.0

package pubconfig

import (
	"errors"
	"slices"
	"testing"
)

func sampleDocument() *Document {
	return NewBuilder().
		Set(SectionDeploy, KeyUser, StringValue("deploy")).
		Set(SectionDeploy, KeyIncludes, ListValue("app/", "wsgi.py")).
		Set(SectionBuild, KeyLocalConfigPath, StringValue("config/")).
		Set(SectionRedis, KeyRedisPort, IntValue(6379)).
		Section("EMPTY").
		Build()
}

func TestDocumentOrder(t *testing.T) {
	t.Parallel()

	doc := sampleDocument()

	wantSections := []Section{SectionDeploy, SectionBuild, SectionRedis, "EMPTY"}
	if got := doc.Sections(); !slices.Equal(got, wantSections) {
		t.Errorf("Sections() = %v, want %v", got, wantSections)
	}

	wantKeys := []Key{KeyUser, KeyIncludes}
	if got := doc.Keys(SectionDeploy); !slices.Equal(got, wantKeys) {
		t.Errorf("Keys(DEPLOY) = %v, want %v", got, wantKeys)
	}

	if got := doc.Keys("EMPTY"); len(got) != 0 {
		t.Errorf("Keys(EMPTY) = %v, want none", got)
	}
	if !doc.HasSection("EMPTY") {
		t.Error("HasSection(EMPTY) = false, want true")
	}
	if got := doc.Keys("ABSENT"); got != nil {
		t.Errorf("Keys(ABSENT) = %v, want nil", got)
	}
}

func TestBuilderSetReplacesInPlace(t *testing.T) {
	t.Parallel()

	doc := NewBuilder().
		Set(SectionBuild, KeyLocalConfigPath, StringValue("a")).
		Set(SectionBuild, KeyLocalAppPath, StringValue("b")).
		Set(SectionBuild, KeyLocalConfigPath, StringValue("c")).
		Build()

	want := []Key{KeyLocalConfigPath, KeyLocalAppPath}
	if got := doc.Keys(SectionBuild); !slices.Equal(got, want) {
		t.Fatalf("Keys(BUILD) = %v, want %v", got, want)
	}
	got, err := doc.String(SectionBuild, KeyLocalConfigPath)
	if err != nil {
		t.Fatalf("String() error = %v", err)
	}
	if got != "c" {
		t.Errorf("String() = %q, want %q", got, "c")
	}
}

func TestTypedAccessors(t *testing.T) {
	t.Parallel()

	doc := sampleDocument()

	tests := []struct {
		name        string
		call        func() error
		wantMissing bool
		wantType    bool
	}{
		{
			name: "string present",
			call: func() error { _, err := doc.String(SectionDeploy, KeyUser); return err },
		},
		{
			name: "int present",
			call: func() error { _, err := doc.Int(SectionRedis, KeyRedisPort); return err },
		},
		{
			name: "list present",
			call: func() error { _, err := doc.List(SectionDeploy, KeyIncludes); return err },
		},
		{
			name:        "key absent",
			call:        func() error { _, err := doc.String(SectionDeploy, KeyGroup); return err },
			wantMissing: true,
		},
		{
			name:        "section absent",
			call:        func() error { _, err := doc.String(SectionFlask, KeyFlaskConfigFile); return err },
			wantMissing: true,
		},
		{
			name:     "string read as int",
			call:     func() error { _, err := doc.Int(SectionDeploy, KeyUser); return err },
			wantType: true,
		},
		{
			name:     "list read as string",
			call:     func() error { _, err := doc.String(SectionDeploy, KeyIncludes); return err },
			wantType: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.call()
			if got := errors.Is(err, ErrConfigurationKeyMissing); got != tt.wantMissing {
				t.Errorf("errors.Is(err, ErrConfigurationKeyMissing) = %v, want %v (err: %v)", got, tt.wantMissing, err)
			}
			if got := errors.Is(err, ErrValueType); got != tt.wantType {
				t.Errorf("errors.Is(err, ErrValueType) = %v, want %v (err: %v)", got, tt.wantType, err)
			}
			if !tt.wantMissing && !tt.wantType && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestMissingSectionIsReported(t *testing.T) {
	t.Parallel()

	doc := sampleDocument()
	_, err := doc.String(SectionFlask, KeyFlaskConfigFile)

	var missing *ConfigurationKeyMissingError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *ConfigurationKeyMissingError, got %T", err)
	}
	if !missing.SectionMissing {
		t.Error("SectionMissing = false, want true")
	}
	if missing.Section != SectionFlask || missing.Key != KeyFlaskConfigFile {
		t.Errorf("error names %s.%s, want FLASK.FLASK_CONFIG_FILE", missing.Section, missing.Key)
	}
}

func TestListReturnsCopy(t *testing.T) {
	t.Parallel()

	doc := sampleDocument()
	first, err := doc.List(SectionDeploy, KeyIncludes)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	first[0] = "mutated"

	second, err := doc.List(SectionDeploy, KeyIncludes)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if second[0] != "app/" {
		t.Errorf("document changed through returned slice: %v", second)
	}
}

func TestEmptyListIsPresent(t *testing.T) {
	t.Parallel()

	doc := NewBuilder().Set(SectionProvision, KeyDependencies, ListValue()).Build()
	got, err := doc.List(SectionProvision, KeyDependencies)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("List() = %#v, want empty non-nil slice", got)
	}
}

func TestFlattenLaterSectionsWin(t *testing.T) {
	t.Parallel()

	doc := NewBuilder().
		Set(SectionDeploy, KeyAppPath, StringValue("/srv/app")).
		Set(SectionDeploy, "SHARED", StringValue("deploy")).
		Set(SectionProvision, KeyDependencies, ListValue("nginx")).
		Set(SectionBuild, "SHARED", StringValue("build")).
		Build()

	flat := doc.Flatten(SectionDeploy, SectionProvision, SectionBuild, "ABSENT")

	if got := flat["SHARED"].String(); got != "build" {
		t.Errorf("SHARED = %q, want %q", got, "build")
	}
	want := []Key{KeyAppPath, KeyDependencies, "SHARED"}
	if got := SortedKeys(flat); !slices.Equal(got, want) {
		t.Errorf("SortedKeys() = %v, want %v", got, want)
	}
}

func TestSectionViews(t *testing.T) {
	t.Parallel()

	doc := NewBuilder().
		Set(SectionRedis, KeyRedisConfigFile, StringValue("redis.conf")).
		Set(SectionRedis, KeyRedisHost, StringValue("localhost")).
		Set(SectionRedis, KeyRedisPort, IntValue(6380)).
		Set(SectionRedis, KeyRedisPasswordPath, StringValue("pw")).
		Set(SectionFlask, KeyFlaskConfigFile, StringValue("flask.cfg")).
		Build()

	redis, err := doc.Redis()
	if err != nil {
		t.Fatalf("Redis() error = %v", err)
	}
	if redis.Host != "localhost" || redis.Port != 6380 {
		t.Errorf("Redis() = %+v", redis)
	}

	_, err = doc.Flask()
	var missing *ConfigurationKeyMissingError
	if !errors.As(err, &missing) {
		t.Fatalf("Flask() error = %v, want ConfigurationKeyMissingError", err)
	}
	if missing.Key != KeyFlaskSecretKeyPath {
		t.Errorf("Flask() missing key = %s, want %s", missing.Key, KeyFlaskSecretKeyPath)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	doc := NewBuilder().
		Set(SectionBuild, KeyLocalConfigPath, StringValue("config/")).
		Set(SectionBuild, KeyLocalAppPath, StringValue("app/")).
		Build()

	err := Validate(doc)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Validate() error = %v, want *ValidationError", err)
	}
	if !errors.Is(err, ErrConfigurationKeyMissing) {
		t.Error("ValidationError should match ErrConfigurationKeyMissing")
	}

	var total int
	for _, s := range DeclaredSections() {
		total += len(DeclaredKeys(s))
	}
	if want := total - 2; len(verr.Missing) != want {
		t.Errorf("len(Missing) = %d, want %d", len(verr.Missing), want)
	}
	if verr.Missing[0].Section != SectionProvision {
		t.Errorf("first missing section = %s, want PROVISION", verr.Missing[0].Section)
	}
}

func TestValueString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value Value
		want  string
	}{
		{StringValue("x"), "x"},
		{IntValue(6379), "6379"},
		{ListValue("a", "b"), "a b"},
		{ListValue(), ""},
		{Value{}, ""},
	}
	for _, tt := range tests {
		if got := tt.value.String(); got != tt.want {
			t.Errorf("%v.String() = %q, want %q", tt.value.Kind(), got, tt.want)
		}
	}
}
