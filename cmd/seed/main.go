// Command seed fills an empty database with one branch, a few building
// materials and a credit customer, then prints a development token.
//
// Usage: DATABASE_URL=file:pos.db go run ./cmd/seed
package main

import (
	"fmt"
	"time"

	"github.com/marimovDEV/v0-crm-pos-system/internal/config"
	"github.com/marimovDEV/v0-crm-pos-system/internal/infra"
	"github.com/marimovDEV/v0-crm-pos-system/internal/middleware"
	"github.com/marimovDEV/v0-crm-pos-system/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	branch := model.Branch{Name: "Markaziy ombor", Address: strPtr("Toshkent, Sergeli 5")}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(model.Branch{Name: branch.Name}).FirstOrCreate(&branch).Error; err != nil {
			return err
		}
		products := []model.Product{
			{Name: "Sement M400", Category: "Sement", BaseUnit: model.BaseUnitKg, SellUnit: model.SellUnitBag,
				UnitRatio: d("50"), CostPrice: d("52000"), SalePrice: d("65000"), Stock: d("5000"), MinStock: d("1000")},
			{Name: "Armatura 12mm", Category: "Metall", BaseUnit: model.BaseUnitMeter, SellUnit: model.SellUnitPiece,
				UnitRatio: d("11.7"), CostPrice: d("95000"), SalePrice: d("112000"), Stock: d("1170"), MinStock: d("234")},
			{Name: "Ruberoid RKK-350", Category: "Tom yopish", BaseUnit: model.BaseUnitM2, SellUnit: model.SellUnitRoll,
				UnitRatio: d("10"), CostPrice: d("78000"), SalePrice: d("92000"), Stock: d("300"), MinStock: d("50")},
			{Name: "Gips shpaklyovka", Category: "Quruq aralashma", BaseUnit: model.BaseUnitKg, SellUnit: model.SellUnitBag,
				UnitRatio: d("25"), CostPrice: d("41000"), SalePrice: d("49000"), Stock: d("750"), MinStock: d("100")},
		}
		for i := range products {
			products[i].BranchID = branch.ID
			if err := tx.Where(model.Product{Name: products[i].Name, BranchID: branch.ID}).
				FirstOrCreate(&products[i]).Error; err != nil {
				return err
			}
		}
		customer := model.Customer{
			Name: "Bahodir usta", Phone: "+998901234567", CustomerType: model.CustomerUsta,
			DebtLimit: d("5000000"), AutoBlockOnLimit: true, BranchID: branch.ID,
		}
		return tx.Where(model.Customer{Phone: customer.Phone}).FirstOrCreate(&customer).Error
	})
	if err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}

	if cfg.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET empty: no token printed")
		return
	}
	token, err := middleware.SignToken(cfg.JWTSecret, middleware.JWTClaims{
		UserID:   uuid.NewString(),
		BranchID: branch.ID.String(),
		Role:     middleware.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("sign token")
	}
	fmt.Printf("branch %s seeded\nadmin token (24h):\n%s\n", branch.ID, token)
}

func strPtr(s string) *string { return &s }
