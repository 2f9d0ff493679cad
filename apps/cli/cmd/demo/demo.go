package demo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	shopsrepo "github.com/zenGate-Global/palmyra-storefront/domains/shops/be/repo"
	shopsservice "github.com/zenGate-Global/palmyra-storefront/domains/shops/be/service"
	platformauth "github.com/zenGate-Global/palmyra-storefront/platform/go/auth"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/tenant"
)

// Options describes the demo owner and shop.
type Options struct {
	OwnerEmail string
	OwnerName  string
	Password   string
	ShopName   string
	Subdomain  string
	BcryptCost int
}

// Result summarizes what Seed created.
type Result struct {
	OwnerID    uuid.UUID `json:"ownerId"`
	TenantID   uuid.UUID `json:"tenantId"`
	Subdomain  string    `json:"subdomain"`
	Categories int       `json:"categories"`
	Products   int       `json:"products"`
	Orders     int       `json:"orders"`
}

type demoProduct struct {
	name      string
	price     string
	inventory int32
	category  int
	active    bool
}

var demoCategories = []string{"Kitchen", "Apparel"}

var demoProducts = []demoProduct{
	{name: "Blue Mug", price: "12.50", inventory: 40, category: 0, active: true},
	{name: "Espresso Cup", price: "8.00", inventory: 25, category: 0, active: true},
	{name: "Tea Towel", price: "6.75", inventory: 0, category: 0, active: false},
	{name: "Logo T-Shirt", price: "24.00", inventory: 15, category: 1, active: true},
	{name: "Canvas Tote", price: "18.90", inventory: 30, category: 1, active: true},
}

var demoOrderTotals = []string{"37.00", "24.00", "12.50"}

// Seed creates a demo owner and shop, then batch-creates categories, products and orders through the
// tenant-scoped persistence wrappers so every row is stamped with the new tenant.
func Seed(ctx context.Context, store persistence.Store, opts Options) (Result, error) {
	hash, err := platformauth.HashPassword(opts.Password, opts.BcryptCost)
	if err != nil {
		return Result{}, err
	}

	ownerName := opts.OwnerName
	owner, err := store.CreateUser(ctx, persistence.UserRecord{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(opts.OwnerEmail)),
		Name:         &ownerName,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, persistence.ErrEmailTaken) {
			return Result{}, fmt.Errorf("owner %s already exists; pick another --email", opts.OwnerEmail)
		}
		return Result{}, fmt.Errorf("create owner: %w", err)
	}

	shops := shopsservice.New(shopsrepo.New(store))
	shop, err := shops.Create(ctx, owner.ID, shopsservice.CreateInput{
		Name:      opts.ShopName,
		Subdomain: opts.Subdomain,
	})
	if err != nil {
		return Result{}, fmt.Errorf("create shop: %w", err)
	}

	scope := tenant.ScopeFor(shop.ID, shop.Subdomain)

	categoryRecs := make([]persistence.CategoryRecord, len(demoCategories))
	for i, name := range demoCategories {
		categoryRecs[i] = persistence.CategoryRecord{
			ID:   uuid.New(),
			Name: name,
			Slug: persistence.DeriveSlug(name),
		}
	}
	categories, err := persistence.Categories(store, scope).CreateMany(ctx, categoryRecs)
	if err != nil {
		return Result{}, fmt.Errorf("create categories: %w", err)
	}

	productRecs := make([]persistence.ProductRecord, len(demoProducts))
	for i, p := range demoProducts {
		categoryID := categories[p.category].ID
		productRecs[i] = persistence.ProductRecord{
			ID:         uuid.New(),
			Name:       p.name,
			Slug:       persistence.DeriveSlug(p.name),
			Price:      decimal.RequireFromString(p.price),
			Images:     []string{},
			Inventory:  p.inventory,
			IsActive:   p.active,
			CategoryID: &categoryID,
		}
	}
	products, err := persistence.Products(store, scope).CreateMany(ctx, productRecs)
	if err != nil {
		return Result{}, fmt.Errorf("create products: %w", err)
	}

	orderRecs := make([]persistence.OrderRecord, len(demoOrderTotals))
	for i, total := range demoOrderTotals {
		orderRecs[i] = persistence.OrderRecord{
			ID:     uuid.New(),
			UserID: &owner.ID,
			Status: "completed",
			Total:  decimal.RequireFromString(total),
		}
	}
	orders, err := persistence.Orders(store, scope).CreateMany(ctx, orderRecs)
	if err != nil {
		return Result{}, fmt.Errorf("create orders: %w", err)
	}

	return Result{
		OwnerID:    owner.ID,
		TenantID:   shop.ID,
		Subdomain:  shop.Subdomain,
		Categories: len(categories),
		Products:   len(products),
		Orders:     len(orders),
	}, nil
}

// Command groups demo data helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Demo data utilities",
	}

	cmd.AddCommand(seedCommand())
	return cmd
}

func seedCommand() *cobra.Command {
	var (
		databaseURL string
		opts        Options
	)

	c := &cobra.Command{
		Use:   "seed",
		Short: "Create a demo owner, shop, categories, products and orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				return errors.New("--database-url or DATABASE_URL is required")
			}
			ctx := cmd.Context()

			pool, err := persistence.NewPool(ctx, persistence.PoolConfig{
				ConnString:      databaseURL,
				ApplicationName: "storefront-cli",
			})
			if err != nil {
				return fmt.Errorf("init pool: %w", err)
			}
			defer persistence.ClosePool(pool)

			store, err := persistence.NewPostgresStore(persistence.PostgresStoreConfig{
				Pool:         pool,
				QueryTimeout: 10 * time.Second,
			})
			if err != nil {
				return err
			}

			res, err := Seed(ctx, store, opts)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"seeded shop %q (%s) owned by %s: %d categories, %d products, %d orders\n",
				res.Subdomain, res.TenantID, res.OwnerID, res.Categories, res.Products, res.Orders)
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string (defaults to $DATABASE_URL)")
	c.Flags().StringVar(&opts.OwnerEmail, "email", "demo@rname.ink", "owner email")
	c.Flags().StringVar(&opts.OwnerName, "name", "Demo Owner", "owner display name")
	c.Flags().StringVar(&opts.Password, "password", "demo-password", "owner password")
	c.Flags().StringVar(&opts.ShopName, "shop-name", "Demo Shop", "shop name")
	c.Flags().StringVar(&opts.Subdomain, "subdomain", "demo", "shop subdomain")
	c.Flags().IntVar(&opts.BcryptCost, "bcrypt-cost", 0, "bcrypt cost for the owner password (0 uses the default)")
	return c
}
