package rule_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/yeisme/photovault/pkg/rule"
)

type uploadForm struct {
	LocalName string `rule:"required,localname"`
	UserID    int64  `rule:"assetid"`
}

func TestEngine(t *testing.T) {
	if rule.Engine() == nil {
		t.Error("Engine() returned nil")
	}
}

func TestValidateStruct(t *testing.T) {
	if err := rule.ValidateStruct(uploadForm{LocalName: "cat.jpg", UserID: 80001}); err != nil {
		t.Fatalf("expected valid form, got %v", err)
	}

	err := rule.ValidateStruct(uploadForm{LocalName: "", UserID: 0})
	if err == nil {
		t.Fatal("expected error for empty form")
	}

	var verrs rule.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}

	if len(verrs) != 2 {
		t.Fatalf("expected 2 field errors, got %v", verrs)
	}

	if !strings.Contains(verrs.Error(), "uploadForm.LocalName") {
		t.Errorf("message should name the field: %s", verrs.Error())
	}
}

func TestLocalName(t *testing.T) {
	cases := map[string]bool{
		"degu.jpg":      true,
		"my photo.png":  true,
		"../etc/passwd": false,
		"a/b.jpg":       false,
		`a\b.jpg`:       false,
		"..":            false,
		"":              false,
	}

	for name, ok := range cases {
		err := rule.ValidateVar(name, "localname")
		if ok && err != nil {
			t.Errorf("%q: expected valid, got %v", name, err)
		}

		if !ok && err == nil {
			t.Errorf("%q: expected invalid", name)
		}
	}
}

func TestErrorsIgnoresOtherErrors(t *testing.T) {
	if got := rule.Errors(errors.New("boom")); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestRegisterValidation(t *testing.T) {
	err := rule.RegisterValidation("even_length", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String())%2 == 0
	})
	if err != nil {
		t.Fatalf("failed to register validation: %v", err)
	}

	if err := rule.ValidateVar("test", "even_length"); err != nil {
		t.Errorf("expected no error for even length string, got %v", err)
	}

	if err := rule.ValidateVar("test1", "even_length"); err == nil {
		t.Error("expected error for odd length string")
	}
}

func TestRegisterAlias(t *testing.T) {
	rule.RegisterAlias("label_text", "required,min=2,max=100")

	if err := rule.ValidateVar("oat", "label_text"); err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if err := rule.ValidateVar("o", "label_text"); err == nil {
		t.Error("expected error for short label")
	}
}
