package constraints

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"

	fieldcheck "github.com/reoring/fieldcheck"
	"github.com/reoring/fieldcheck/classify"
)

// Phone requires a string to parse as a valid phone number. Region is the
// default ISO 3166-1 region for numbers without a country prefix;
// declaration: phone or phone=NL.
type Phone struct {
	fieldcheck.ConstraintBase
	Region string
}

func (*Phone) Code() string { return fieldcheck.CodeFormat }

func parsePhone(param string) (fieldcheck.Constraint, error) {
	return &Phone{Region: param}, nil
}

var phoneValidator = fieldcheck.ValidatorFunc(func(ctx context.Context, v any, c fieldcheck.Constraint, vc fieldcheck.Context) (*fieldcheck.ApiError, error) {
	p := c.(*Phone)
	s, ok := toString(v)
	if !ok || s == "" {
		return nil, nil
	}
	region := p.Region
	if region == "" {
		region = "ZZ" // unknown region: only fully-qualified numbers parse
	}
	num, err := phonenumbers.Parse(s, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return violation(vc, fieldcheck.CodeFormat, map[string]any{"format": "phone number"}), nil
	}
	return nil, nil
})

// UUID requires a string to parse as an RFC 4122 UUID; declaration: uuid.
type UUID struct {
	fieldcheck.ConstraintBase
}

func (*UUID) Code() string { return fieldcheck.CodeFormat }

func parseUUID(param string) (fieldcheck.Constraint, error) {
	if param != "" {
		return nil, fmt.Errorf("uuid takes no parameter")
	}
	return &UUID{}, nil
}

var uuidValidator = fieldcheck.ValidatorFunc(func(ctx context.Context, v any, c fieldcheck.Constraint, vc fieldcheck.Context) (*fieldcheck.ApiError, error) {
	s, ok := toString(v)
	if !ok || s == "" {
		return nil, nil
	}
	if _, err := uuid.Parse(s); err != nil {
		return violation(vc, fieldcheck.CodeFormat, map[string]any{"format": "uuid"}), nil
	}
	return nil, nil
})

// Email requires a string to parse as an RFC 5322 address; declaration:
// email.
type Email struct {
	fieldcheck.ConstraintBase
}

func (*Email) Code() string { return fieldcheck.CodeFormat }

func parseEmail(param string) (fieldcheck.Constraint, error) {
	if param != "" {
		return nil, fmt.Errorf("email takes no parameter")
	}
	return &Email{}, nil
}

var emailValidator = fieldcheck.ValidatorFunc(func(ctx context.Context, v any, c fieldcheck.Constraint, vc fieldcheck.Context) (*fieldcheck.ApiError, error) {
	s, ok := toString(v)
	if !ok || s == "" {
		return nil, nil
	}
	if _, err := mail.ParseAddress(s); err != nil {
		return violation(vc, fieldcheck.CodeFormat, map[string]any{"format": "email address"}), nil
	}
	return nil, nil
})

func registerFormats(reg *fieldcheck.Registry) {
	reg.RegisterConstraint("phone", parsePhone)
	reg.Bind(&Phone{}, phoneValidator, fieldcheck.Exact(classify.String))

	reg.RegisterConstraint("uuid", parseUUID)
	reg.Bind(&UUID{}, uuidValidator, fieldcheck.Exact(classify.String))

	reg.RegisterConstraint("email", parseEmail)
	reg.Bind(&Email{}, emailValidator, fieldcheck.Exact(classify.String))
}
