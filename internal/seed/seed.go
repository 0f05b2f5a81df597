// Package seed populates a database with demo tenants, users, inventory and purchase requests.
// It is meant for development and tests only.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"stockflow/internal/middleware"
	"stockflow/internal/models"
	"stockflow/internal/repository"
	"stockflow/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "password123"

// Options configures a seeding run.
type Options struct {
	MembersPerCompany  int
	RequestsPerCompany int
	// Seed makes gofakeit deterministic when non-zero.
	Seed int64
}

// Summary counts what a run created.
type Summary struct {
	Companies int
	Users     int
	Items     int
	Requests  int
}

type Seeder struct {
	db       *gorm.DB
	fixtures *Fixtures
	faker    *gofakeit.Faker
	password string
}

// NewSeeder binds a seeder to db and the given catalog.
func NewSeeder(db *gorm.DB, fixtures *Fixtures, opts Options) (*Seeder, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &Seeder{
		db:       db,
		fixtures: fixtures,
		faker:    gofakeit.New(opts.Seed),
		password: string(hash),
	}, nil
}

// ClearAll deletes every workflow record, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tables := []string{"stock_movements", "purchase_requests", "inventory_items", "users", "companies"}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// Run creates the catalog's companies with an admin, opts.MembersPerCompany members,
// the catalog items and opts.RequestsPerCompany requests spread over every status.
// Requests go through the purchasing workflow so stock and history stay consistent.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Summary, error) {
	summary := &Summary{}
	stores := repository.NewStores(s.db)
	workflow := service.NewPurchaseRequestService(repository.NewUnitOfWork(s.db), stores, nil)

	for _, cf := range s.fixtures.Companies {
		if _, err := stores.Companies.GetByDomain(ctx, cf.Domain); err == nil {
			return nil, fmt.Errorf("company %s already seeded, rerun with -clean", cf.Domain)
		} else if models.ErrorCode(err) != models.CodeNotFound {
			return nil, fmt.Errorf("lookup company %s: %w", cf.Domain, err)
		}
		company := &models.Company{Name: cf.Name, Domain: cf.Domain}
		if err := stores.Companies.Create(ctx, company); err != nil {
			return nil, fmt.Errorf("create company %s: %w", cf.Domain, err)
		}
		summary.Companies++

		admin, err := s.createUser(ctx, company, "admin", models.UserRoleAdmin)
		if err != nil {
			return nil, err
		}
		members := make([]*models.User, 0, opts.MembersPerCompany)
		for i := 0; i < opts.MembersPerCompany; i++ {
			m, err := s.createUser(ctx, company, fmt.Sprintf("%s.%d", strings.ToLower(s.faker.FirstName()), i+1), models.UserRoleUser)
			if err != nil {
				return nil, err
			}
			members = append(members, m)
		}
		summary.Users += 1 + len(members)

		items := make([]models.InventoryItem, 0, len(cf.Items))
		for _, it := range cf.Items {
			item := models.InventoryItem{
				CompanyID:     company.ID,
				Name:          it.Name,
				Quantity:      it.Quantity,
				Location:      it.Location,
				Category:      it.Category,
				MinStockLevel: it.MinStock,
				AssetCode:     service.AssetCode(company.Domain, s.faker.UUID()),
			}
			if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
				return nil, fmt.Errorf("create item %s: %w", it.Name, err)
			}
			items = append(items, item)
		}
		summary.Items += len(items)

		if len(members) == 0 {
			members = append(members, admin)
		}
		actor := service.Actor{UserID: admin.ID, CompanyID: company.ID, Role: admin.Role}
		for i := 0; i < opts.RequestsPerCompany; i++ {
			if err := s.seedRequest(ctx, workflow, actor, members[i%len(members)], items, i); err != nil {
				return nil, err
			}
			summary.Requests++
		}
	}

	middleware.Logger.InfoContext(ctx, "seed complete",
		slog.Int("companies", summary.Companies),
		slog.Int("users", summary.Users),
		slog.Int("items", summary.Items),
		slog.Int("requests", summary.Requests),
	)
	return summary, nil
}

func (s *Seeder) createUser(ctx context.Context, company *models.Company, local string, role models.UserRole) (*models.User, error) {
	user := &models.User{
		Email:     fmt.Sprintf("%s@%s.test", local, company.Domain),
		Name:      s.faker.Name(),
		Password:  s.password,
		Role:      role,
		CompanyID: company.ID,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Email, err)
	}
	return user, nil
}

// seedRequest creates request i and walks it to one of the four statuses in turn.
func (s *Seeder) seedRequest(ctx context.Context, workflow *service.PurchaseRequestService, admin service.Actor, requester *models.User, items []models.InventoryItem, i int) error {
	in := service.CreatePurchaseRequestInput{
		CompanyID:     admin.CompanyID,
		RequesterID:   requester.ID,
		Quantity:      s.faker.Number(1, 20),
		Justification: s.faker.Sentence(8),
	}
	if i%2 == 0 && len(items) > 0 {
		id := items[i%len(items)].ID
		in.ItemID = &id
	} else {
		in.ItemName = s.faker.ProductName()
	}

	req, err := workflow.Create(ctx, in)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	switch i % 4 {
	case 1:
		_, err = workflow.Approve(ctx, admin, req.ID)
	case 2:
		_, err = workflow.Reject(ctx, admin, req.ID)
	case 3:
		if _, err = workflow.Approve(ctx, admin, req.ID); err == nil {
			_, err = workflow.Receive(ctx, admin, req.ID)
		}
	}
	if err != nil {
		return fmt.Errorf("advance request %d: %w", req.ID, err)
	}
	return nil
}
