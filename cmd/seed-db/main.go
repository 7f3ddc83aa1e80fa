// Command seed-db loads a demo dataset: the marble catalog, a few coupons,
// and three accounts (buyer, unconfirmed buyer, admin) with addresses. Safe
// to run repeatedly; existing rows are left alone.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/zellijstore/commerce/internal/api"
	"github.com/zellijstore/commerce/internal/domain/address"
	"github.com/zellijstore/commerce/internal/domain/coupon"
	"github.com/zellijstore/commerce/internal/domain/identity"
	"github.com/zellijstore/commerce/internal/domain/product"
	"github.com/zellijstore/commerce/internal/repository"
)

type seedAccount struct {
	user   identity.User
	apiKey string
}

func main() {
	var (
		databaseURL string
		pepper      string
	)
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&pepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or ZELLIJ_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if pepper == "" {
		pepper = os.Getenv("ZELLIJ_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, pepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, pepper string) error {
	slog.Info("connecting to database")
	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")
	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	accounts, err := seedUsers(ctx, pool, pepper)
	if err != nil {
		return errors.Wrap(err, "seed users")
	}
	if err := seedAddresses(ctx, pool, accounts); err != nil {
		return errors.Wrap(err, "seed addresses")
	}
	if err := seedProducts(ctx, pool); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedCoupons(ctx, pool); err != nil {
		return errors.Wrap(err, "seed coupons")
	}
	return nil
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, pepper string) ([]seedAccount, error) {
	users := repository.NewUserRepository(pool)

	accounts := []seedAccount{
		{
			user: identity.User{
				ID:             uuid.NewSHA1(uuid.NameSpaceOID, []byte("zellij-buyer")).String(),
				Email:          "buyer@zellij.example",
				EmailConfirmed: true,
			},
			apiKey: "zellij-dev-buyer",
		},
		{
			user: identity.User{
				ID:    uuid.NewSHA1(uuid.NameSpaceOID, []byte("zellij-unconfirmed")).String(),
				Email: "unconfirmed@zellij.example",
			},
			apiKey: "zellij-dev-unconfirmed",
		},
		{
			user: identity.User{
				ID:             uuid.NewSHA1(uuid.NameSpaceOID, []byte("zellij-admin")).String(),
				Email:          "admin@zellij.example",
				EmailConfirmed: true,
				Admin:          true,
			},
			apiKey: "zellij-dev-admin",
		},
	}

	slog.Info("upserting users", slog.Int("count", len(accounts)))
	for _, a := range accounts {
		if err := users.Insert(ctx, a.user, api.HashAPIKey([]byte(pepper), a.apiKey)); err != nil {
			return nil, err
		}
	}
	return accounts, nil
}

func seedAddresses(ctx context.Context, pool *pgxpool.Pool, accounts []seedAccount) error {
	addrs := repository.NewAddressRepository(pool)

	slog.Info("inserting addresses")
	for _, a := range accounts {
		existing, err := addrs.ListByUser(ctx, a.user.ID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			continue
		}
		if _, err := addrs.Insert(ctx, address.Address{
			UserID:     a.user.ID,
			Name:       "Home",
			Street:     "12 Rue des Artisans",
			City:       "Marrakesh",
			PostalCode: "40000",
			Country:    "MA",
			IsDefault:  true,
		}); err != nil {
			return err
		}
	}
	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool) error {
	products := repository.NewProductRepository(pool)

	existing, err := products.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		slog.Info("catalog already seeded", slog.Int("count", len(existing)))
		return nil
	}

	catalog := []product.Product{
		{
			Name: "Carrara Hexagon Tile", Description: "Classic white hexagon mosaic, honed finish.",
			Price: decimal.RequireFromString("125.00"), MarbleType: "Carrara",
			Origin: "Italy", Color: "White", Finish: "Honed", Dimensions: "30x30 cm",
			StockQuantity: 40,
		},
		{
			Name: "Atlas Grey Slab", Description: "Large-format grey slab from the Atlas mountains.",
			Price: decimal.RequireFromString("480.00"), MarbleType: "Atlas Grey",
			Origin: "Morocco", Color: "Grey", Finish: "Polished", Dimensions: "280x160 cm",
			StockQuantity: 6,
		},
		{
			Name: "Taza Beige Countertop", Description: "Cut-to-size beige countertop, polished edge.",
			Price: decimal.RequireFromString("320.00"), MarbleType: "Taza Beige",
			Origin: "Morocco", Color: "Beige", Finish: "Polished", Dimensions: "240x65 cm",
			StockQuantity: 12,
		},
		{
			Name: "Nero Marquina Border", Description: "Black border strip with white veining.",
			Price: decimal.RequireFromString("58.50"), MarbleType: "Nero Marquina",
			Origin: "Spain", Color: "Black", Finish: "Polished", Dimensions: "60x10 cm",
			StockQuantity: 90,
		},
	}

	slog.Info("inserting products", slog.Int("count", len(catalog)))
	for _, p := range catalog {
		if _, err := products.Insert(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	coupons := repository.NewCouponRepository(pool)
	now := time.Now()

	min := decimal.RequireFromString("300.00")
	limit := 100
	fixtures := []coupon.Coupon{
		{
			Code:               "WELCOME10",
			Description:        "10% off your first order",
			DiscountPercentage: decimal.RequireFromString("10"),
			ValidFrom:          now,
			ValidUntil:         now.AddDate(1, 0, 0),
			Active:             true,
		},
		{
			Code:                  "ZELLIJ25",
			Description:           "25% off orders over 300",
			DiscountPercentage:    decimal.RequireFromString("25"),
			MinimumOrderAmount:    &min,
			ValidFrom:             now,
			ValidUntil:            now.AddDate(0, 3, 0),
			UsageLimit:            &limit,
			Active:                true,
			RequireConfirmedEmail: true,
		},
	}

	slog.Info("inserting coupons", slog.Int("count", len(fixtures)))
	for _, c := range fixtures {
		inserted, err := coupons.Insert(ctx, c)
		if err != nil {
			return err
		}
		if !inserted {
			slog.Info("coupon already present", slog.String("code", c.Code))
		}
	}
	return nil
}
