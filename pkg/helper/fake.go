package helper

import (
	"math/rand/v2"

	"github.com/brianvoe/gofakeit/v7"
)

// fakeHelper delegates to the fake-data provider. Every flavour helper takes
// no arguments and returns a string (or a float for coordinates).
type fakeHelper struct {
	name string
	gen  func(*gofakeit.Faker) any
	f    *gofakeit.Faker
}

func (h fakeHelper) Name() string  { return h.name }
func (fakeHelper) Params() []Param { return nil }

func (h fakeHelper) Call(Args) (any, error) {
	return h.gen(h.f), nil
}

var fakeCatalog = map[string]func(*gofakeit.Faker) any{
	"city":      func(f *gofakeit.Faker) any { return f.City() },
	"company":   func(f *gofakeit.Faker) any { return f.Company() },
	"domain":    func(f *gofakeit.Faker) any { return f.DomainName() },
	"email":     func(f *gofakeit.Faker) any { return f.Email() },
	"firstName": func(f *gofakeit.Faker) any { return f.FirstName() },
	"industry":  func(f *gofakeit.Faker) any { return f.JobDescriptor() + " " + f.ProductCategory() },
	"lastName":  func(f *gofakeit.Faker) any { return f.LastName() },
	"latitude":  func(f *gofakeit.Faker) any { return f.Latitude() },
	"longitude": func(f *gofakeit.Faker) any { return f.Longitude() },
	"name":      func(f *gofakeit.Faker) any { return f.Name() },
	"paragraph": func(f *gofakeit.Faker) any {
		return f.LoremIpsumParagraph(1, 7, sentenceWords(), " ")
	},
	"phone":      func(f *gofakeit.Faker) any { return f.Phone() },
	"postcode":   func(f *gofakeit.Faker) any { return f.Zip() },
	"profession": func(f *gofakeit.Faker) any { return f.JobTitle() },
	"sentence":   func(f *gofakeit.Faker) any { return f.LoremIpsumSentence(sentenceWords()) },
	"state":      func(f *gofakeit.Faker) any { return f.State() },
	"stateCode":  func(f *gofakeit.Faker) any { return f.StateAbr() },
	"street":     func(f *gofakeit.Faker) any { return f.Street() },
	"title":      func(f *gofakeit.Faker) any { return f.NamePrefix() },
	"userAgent":  func(f *gofakeit.Faker) any { return f.UserAgent() },
	"username":   func(f *gofakeit.Faker) any { return f.Username() },
	"word":       func(f *gofakeit.Faker) any { return f.LoremIpsumWord() },
	"zip":        func(f *gofakeit.Faker) any { return f.Zip() },
}

// sentences carry four to six words.
func sentenceWords() int {
	return 4 + rand.IntN(3)
}

// Fake returns the flavour helpers backed by f. A nil faker uses a new
// thread-safe provider.
func Fake(f *gofakeit.Faker) []Helper {
	if f == nil {
		f = gofakeit.New(0)
	}
	helpers := make([]Helper, 0, len(fakeCatalog))
	for name, gen := range fakeCatalog {
		helpers = append(helpers, fakeHelper{name: name, gen: gen, f: f})
	}
	return helpers
}

// FakeNames lists the flavour helper names.
func FakeNames() []string {
	names := make([]string, 0, len(fakeCatalog))
	for name := range fakeCatalog {
		names = append(names, name)
	}
	return names
}
