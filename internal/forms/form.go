// Package forms describes the create dialogs and validates them before
// anything is sent to the backend.
package forms

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/christopherklint97/mybtp/internal/btp"
	"github.com/christopherklint97/mybtp/internal/format"
)

// ErrNotImplemented is returned for features whose creation dialog does
// not exist yet. The TUI shows NotImplementedAlert instead of a form.
var ErrNotImplemented = errors.New("create form not implemented")

const NotImplementedAlert = "Fonctionnalité à implémenter"

var (
	UserTypes   = []string{"Admin", "Secrétaire", "Chef d'équipe", "Employé"}
	ClientTypes = []string{"Professionnel", "Particulier"}
)

type Kind int

const (
	Text Kind = iota
	TextArea
	Email
	Password
	Number
	Date
	Time
	Color
	Select
)

type Option struct {
	Value string
	Label string
}

// Field is one input of a dialog, as rendered.
type Field struct {
	Name        string
	Label       string
	Kind        Kind
	Required    bool
	Placeholder string
	Options     []Option
	Value       string
}

type Form interface {
	Title() string
	Feature() btp.Feature
	Fields() []Field
	Set(name, value string) error
	Validate() error
	Values() url.Values
}

// FieldError is the first input that failed validation.
type FieldError struct {
	Field   string
	Label   string
	Message string
}

func (e *FieldError) Error() string {
	if e.Label == "" {
		return e.Message
	}
	return e.Label + " : " + e.Message
}

// ForFeature returns an empty dialog for f.
func ForFeature(f btp.Feature) (Form, error) {
	switch f {
	case btp.Chantiers:
		return NewChantierForm(), nil
	case btp.Teams:
		return NewTeamForm(), nil
	case btp.Employees:
		return NewEmployeeForm(), nil
	case btp.Planning:
		return NewSlotForm(), nil
	case btp.Pistes, btp.Fleet:
		return nil, fmt.Errorf("%s: %w", f, ErrNotImplemented)
	}
	return nil, fmt.Errorf("no form for %q", f)
}

var (
	validate = newValidator()
	clockRe  = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
	})
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(v.RegisterValidation("frphone", func(fl validator.FieldLevel) bool {
		return format.ValidPhone(fl.Field().String())
	}))
	must(v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return clockRe.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := btp.ParseDate(fl.Field().String())
		return err == nil
	}))
	must(v.RegisterValidation("usertype", func(fl validator.FieldLevel) bool {
		return contains(UserTypes, fl.Field().String())
	}))
	must(v.RegisterValidation("clienttype", func(fl validator.FieldLevel) bool {
		return contains(ClientTypes, fl.Field().String())
	}))
	must(v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(strings.Replace(fl.Field().String(), ",", ".", 1))
		return err == nil && !d.IsNegative()
	}))
	v.RegisterStructValidation(slotHoursValidation, slotInput{})
	return v
}

var messages = map[string]string{
	"required":   "Ce champ est obligatoire.",
	"email":      "Saisissez une adresse e-mail valide.",
	"frphone":    "Saisissez un numéro de téléphone valide.",
	"clock":      "Saisissez une heure au format HH:MM.",
	"isodate":    "Saisissez une date valide.",
	"amount":     "Saisissez un montant positif.",
	"hexcolor":   "Saisissez une couleur hexadécimale.",
	"url":        "Saisissez une URL valide.",
	"usertype":   "Sélectionnez une valeur de la liste.",
	"clienttype": "Sélectionnez une valeur de la liste.",
	"number":     "Sélectionnez une valeur de la liste.",
	"max":        "Ce champ est trop long.",
	"min":        "Ce champ est trop court.",
	"after":      "L'heure de fin doit être après l'heure de début.",
}

// check validates a form struct and reports the first failing field in
// declaration order.
func check(form any, fields []Field) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	first := verrs[0]
	msg, ok := messages[first.Tag()]
	if !ok {
		msg = "Valeur invalide."
	}
	name := first.Field()
	return &FieldError{Field: name, Label: labelOf(fields, name), Message: msg}
}

func labelOf(fields []Field, name string) string {
	for _, f := range fields {
		if f.Name == name {
			return f.Label
		}
	}
	return name
}

// bind maps the form tags of a struct to its string fields.
func bind(ptr any) map[string]*string {
	v := reflect.ValueOf(ptr).Elem()
	t := v.Type()
	out := make(map[string]*string, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name := strings.SplitN(t.Field(i).Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" || t.Field(i).Type.Kind() != reflect.String {
			continue
		}
		out[name] = v.Field(i).Addr().Interface().(*string)
	}
	return out
}

// base carries the plumbing shared by every dialog. Concrete forms embed it
// and point it at their own struct.
type base struct {
	title   string
	feature btp.Feature
	fields  []Field
	values  map[string]*string
}

func (b *base) Title() string        { return b.title }
func (b *base) Feature() btp.Feature { return b.feature }

// Fields returns the dialog's inputs with their current values.
func (b *base) Fields() []Field {
	out := make([]Field, len(b.fields))
	for i, f := range b.fields {
		if p, ok := b.values[f.Name]; ok {
			f.Value = *p
		}
		out[i] = f
	}
	return out
}

func (b *base) Set(name, value string) error {
	p, ok := b.values[name]
	if !ok {
		return fmt.Errorf("unknown field %q", name)
	}
	*p = strings.TrimSpace(value)
	return nil
}

// SetOptions fills a select field, e.g. chefs or teams loaded from the server.
func (b *base) SetOptions(name string, opts []Option) {
	for i := range b.fields {
		if b.fields[i].Name == name {
			b.fields[i].Options = opts
		}
	}
}

// Values is the multipart payload, empty optional fields omitted.
func (b *base) Values() url.Values {
	out := url.Values{}
	for _, f := range b.fields {
		p, ok := b.values[f.Name]
		if !ok {
			continue
		}
		v := strings.TrimSpace(*p)
		if v == "" && !f.Required {
			continue
		}
		if f.Kind == Number {
			v = strings.Replace(v, ",", ".", 1)
		}
		out.Set(f.Name, v)
	}
	return out
}

func optionsOf(values ...string) []Option {
	out := make([]Option, len(values))
	for i, v := range values {
		out[i] = Option{Value: v, Label: v}
	}
	return out
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
