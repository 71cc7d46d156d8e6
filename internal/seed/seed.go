// Package seed loads demo outreach data from YAML files through the application services.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/example/outreach-tracker/internal/application"
	"github.com/example/outreach-tracker/internal/persistence"
)

// File is the top-level seed document.
type File struct {
	Companies []Company `yaml:"companies"`
}

// Company describes a seeded company and its contacts.
type Company struct {
	Name        string   `yaml:"name"`
	Website     string   `yaml:"website"`
	LinkedIn    *string  `yaml:"linkedin,omitempty"`
	Crunchbase  *string  `yaml:"crunchbase,omitempty"`
	CompanySize *string  `yaml:"company_size,omitempty"`
	Decision    *string  `yaml:"decision,omitempty"`
	People      []Person `yaml:"people,omitempty"`
}

// Person describes a seeded contact. Attempt numbers follow list order.
type Person struct {
	Name      string    `yaml:"name"`
	Email     string    `yaml:"email"`
	Position  *string   `yaml:"position,omitempty"`
	LinkedIn  *string   `yaml:"linkedin,omitempty"`
	City      *string   `yaml:"city,omitempty"`
	State     *string   `yaml:"state,omitempty"`
	Country   *string   `yaml:"country,omitempty"`
	Responded bool      `yaml:"responded,omitempty"`
	Attempts  []Attempt `yaml:"attempts,omitempty"`
}

// Attempt describes a seeded email attempt.
type Attempt struct {
	SentDate    string `yaml:"sent_date"`
	Subject     string `yaml:"subject"`
	Opens       int    `yaml:"opens,omitempty"`
	Clicks      int    `yaml:"clicks,omitempty"`
	ResumeOpens int    `yaml:"resume_opens,omitempty"`
	Responded   bool   `yaml:"responded,omitempty"`
}

// Services are the application operations a seed run needs.
type Services struct {
	Companies interface {
		CreateCompany(ctx context.Context, input application.CompanyInput) (application.Company, error)
		SetDecision(ctx context.Context, id string, decision *application.Decision) (application.Company, error)
	}
	People interface {
		CreatePerson(ctx context.Context, input application.PersonInput) (application.Person, error)
	}
	Attempts interface {
		CreateEmailAttempt(ctx context.Context, input application.EmailAttemptInput) (application.EmailAttempt, error)
	}
}

// Result counts the records created by Apply.
type Result struct {
	Companies     int
	People        int
	EmailAttempts int
}

// Load decodes a seed document. Unknown keys are rejected.
func Load(r io.Reader) (File, error) {
	var file File
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("decode seed file: %w", err)
	}
	return file, nil
}

// LoadFile reads and decodes the seed document at path.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	return Load(bytes.NewReader(data))
}

// Apply creates every record in file. It stops at the first failure and reports
// how far it got; records created before the failure are kept.
func Apply(ctx context.Context, file File, services Services) (Result, error) {
	var result Result
	for ci, seeded := range file.Companies {
		company, err := services.Companies.CreateCompany(ctx, application.CompanyInput{
			Name:        seeded.Name,
			Website:     seeded.Website,
			LinkedIn:    seeded.LinkedIn,
			Crunchbase:  seeded.Crunchbase,
			CompanySize: seeded.CompanySize,
		})
		if err != nil {
			return result, fmt.Errorf("companies[%d] %q: %w", ci, seeded.Name, err)
		}
		result.Companies++

		if seeded.Decision != nil {
			decision := application.Decision(*seeded.Decision)
			if decision != application.DecisionYes && decision != application.DecisionNo {
				return result, fmt.Errorf("companies[%d] %q: decision must be Yes or No", ci, seeded.Name)
			}
			if _, err := services.Companies.SetDecision(ctx, company.ID, &decision); err != nil {
				return result, fmt.Errorf("companies[%d] %q decision: %w", ci, seeded.Name, err)
			}
		}

		for pi, seededPerson := range seeded.People {
			person, err := services.People.CreatePerson(ctx, application.PersonInput{
				CompanyID: company.ID,
				Name:      seededPerson.Name,
				Email:     seededPerson.Email,
				Position:  seededPerson.Position,
				LinkedIn:  seededPerson.LinkedIn,
				City:      seededPerson.City,
				State:     seededPerson.State,
				Country:   seededPerson.Country,
				Responded: seededPerson.Responded,
			})
			if err != nil {
				return result, fmt.Errorf("companies[%d].people[%d] %q: %w", ci, pi, seededPerson.Name, err)
			}
			result.People++

			for ai, seededAttempt := range seededPerson.Attempts {
				_, err := services.Attempts.CreateEmailAttempt(ctx, application.EmailAttemptInput{
					PersonID:        person.ID,
					AttemptNumber:   ai + 1,
					SentDate:        seededAttempt.SentDate,
					Subject:         seededAttempt.Subject,
					OpenCount:       seededAttempt.Opens,
					ClickCount:      seededAttempt.Clicks,
					ResumeOpenCount: seededAttempt.ResumeOpens,
					Responded:       seededAttempt.Responded,
				})
				if err != nil {
					return result, fmt.Errorf("companies[%d].people[%d].attempts[%d]: %w", ci, pi, ai, err)
				}
				result.EmailAttempts++
			}
		}
	}
	return result, nil
}

// FromSnapshot converts a store snapshot into a seed document that Apply can
// replay. Companies and people keep creation order; attempts follow attempt
// number. Derived counters are not exported.
func FromSnapshot(snapshot persistence.Snapshot) File {
	attemptsByPerson := make(map[string][]persistence.EmailAttempt)
	for _, attempt := range snapshot.EmailAttempts {
		attemptsByPerson[attempt.PersonID] = append(attemptsByPerson[attempt.PersonID], attempt)
	}
	peopleByCompany := make(map[string][]persistence.Person)
	for _, person := range snapshot.People {
		peopleByCompany[person.CompanyID] = append(peopleByCompany[person.CompanyID], person)
	}

	companies := append([]persistence.Company(nil), snapshot.Companies...)
	sort.SliceStable(companies, func(i, j int) bool { return companies[i].Seq < companies[j].Seq })

	file := File{Companies: make([]Company, 0, len(companies))}
	for _, company := range companies {
		exported := Company{
			Name:        company.Name,
			Website:     company.Website,
			LinkedIn:    company.LinkedIn,
			Crunchbase:  company.Crunchbase,
			CompanySize: company.CompanySize,
			Decision:    company.Decision,
		}

		people := peopleByCompany[company.ID]
		sort.SliceStable(people, func(i, j int) bool { return people[i].Seq < people[j].Seq })
		for _, person := range people {
			exportedPerson := Person{
				Name:      person.Name,
				Email:     person.Email,
				Position:  person.Position,
				LinkedIn:  person.LinkedIn,
				City:      person.City,
				State:     person.State,
				Country:   person.Country,
				Responded: person.Responded,
			}

			attempts := attemptsByPerson[person.ID]
			sort.SliceStable(attempts, func(i, j int) bool { return attempts[i].AttemptNumber < attempts[j].AttemptNumber })
			for _, attempt := range attempts {
				exportedPerson.Attempts = append(exportedPerson.Attempts, Attempt{
					SentDate:    attempt.SentDate,
					Subject:     attempt.Subject,
					Opens:       attempt.OpenCount,
					Clicks:      attempt.ClickCount,
					ResumeOpens: attempt.ResumeOpenCount,
					Responded:   attempt.Responded,
				})
			}
			exported.People = append(exported.People, exportedPerson)
		}
		file.Companies = append(file.Companies, exported)
	}
	return file
}

// Write encodes file as YAML.
func Write(w io.Writer, file File) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(file); err != nil {
		return fmt.Errorf("encode seed file: %w", err)
	}
	return encoder.Close()
}
