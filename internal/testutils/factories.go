package testutils

import (
	"strings"
	"time"

	"expensely-backend/internal/database/models"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EmailFactory provides unique, normalized test email addresses
type EmailFactory struct {
	faker *gofakeit.Faker
}

// NewEmailFactory creates a new EmailFactory
func NewEmailFactory(faker *gofakeit.Faker) *EmailFactory {
	return &EmailFactory{faker: faker}
}

// Create returns a lower-cased email that is unique within the test run
func (f *EmailFactory) Create() string {
	local := strings.ToLower(f.faker.Username()) + "." + uuid.NewString()[:8]
	return local + "@" + strings.ToLower(f.faker.DomainName())
}

// CreateN returns n distinct emails
func (f *EmailFactory) CreateN(n int) []string {
	emails := make([]string, n)
	for i := range emails {
		emails[i] = f.Create()
	}
	return emails
}

// GroupFactory provides methods to create test Group data
type GroupFactory struct {
	faker  *gofakeit.Faker
	emails *EmailFactory
}

// NewGroupFactory creates a new GroupFactory
func NewGroupFactory(faker *gofakeit.Faker, emails *EmailFactory) *GroupFactory {
	return &GroupFactory{faker: faker, emails: emails}
}

// Create creates a test Group with a joined creator and two invitees
func (f *GroupFactory) Create() *models.Group {
	creator := f.emails.Create()
	return f.WithMembers(creator, creator, f.emails.Create(), f.emails.Create())
}

// WithMembers creates a group whose creator email is creator; only the creator is joined
func (f *GroupFactory) WithMembers(creator string, emails ...string) *models.Group {
	members := make([]models.Member, len(emails))
	for i, email := range emails {
		members[i] = models.Member{
			Email:  email,
			Name:   models.DisplayName(email),
			Joined: email == creator,
		}
	}
	return &models.Group{
		Name:      f.faker.City() + " Trip",
		CreatedBy: "uid-" + models.DisplayName(creator),
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		Members:   members,
	}
}

// ExpenseFactory provides methods to create test Expense data
type ExpenseFactory struct {
	faker *gofakeit.Faker
}

// NewExpenseFactory creates a new ExpenseFactory
func NewExpenseFactory(faker *gofakeit.Faker) *ExpenseFactory {
	return &ExpenseFactory{faker: faker}
}

// ForGroup creates an expense paid by the group's first member and split between everyone
func (f *ExpenseFactory) ForGroup(group *models.Group) *models.Expense {
	emails := group.MemberEmails()
	payer := ""
	if len(emails) > 0 {
		payer = emails[0]
	}
	return &models.Expense{
		GroupID:      group.ID,
		Description:  f.faker.Sentence(3),
		Amount:       decimal.NewFromFloat(f.faker.Price(1, 500)).Round(2),
		PaidBy:       payer,
		SplitBetween: emails,
	}
}

// FactorySet contains all factories for easy access
type FactorySet struct {
	Email   *EmailFactory
	Group   *GroupFactory
	Expense *ExpenseFactory
}

// NewFactorySet creates a new set of all factories
func NewFactorySet() *FactorySet {
	faker := gofakeit.New(0)
	emails := NewEmailFactory(faker)
	return &FactorySet{
		Email:   emails,
		Group:   NewGroupFactory(faker, emails),
		Expense: NewExpenseFactory(faker),
	}
}
