package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	companyDatamodel "github.com/lop-gin/janus/internal/core/datamodel/company"
	invitationDatamodel "github.com/lop-gin/janus/internal/core/datamodel/invitation"
	roleDatamodel "github.com/lop-gin/janus/internal/core/datamodel/role"
	tenantuserDatamodel "github.com/lop-gin/janus/internal/core/datamodel/tenantuser"
	"github.com/lop-gin/janus/internal/permission"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			for _, table := range []string{"activity_log", "invitations", "user_roles", "roles", "users", "companies"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		var count int64
		db.Model(&companyDatamodel.Company{}).Where("name = ?", "Acme Trading").Count(&count)
		if count > 0 {
			fmt.Println("Seed company already exists; nothing to do")
			return
		}

		company := companyDatamodel.Company{
			Name:  "Acme Trading",
			Type:  "retail",
			Email: "owner@acme.test",
		}
		if err := db.Create(&company).Error; err != nil {
			log.Fatalf("failed to seed company: %v", err)
		}

		owner := tenantuserDatamodel.TenantUser{
			CompanyID:  company.ID,
			AuthUserID: uuid.NewString(),
			Name:       "Acme Owner",
			Email:      "owner@acme.test",
			IsActive:   true,
		}
		if err := db.Create(&owner).Error; err != nil {
			log.Fatalf("failed to seed owner: %v", err)
		}

		superAdmin := roleDatamodel.Role{
			CompanyID:    company.ID,
			RoleName:     permission.SuperAdminRoleName,
			Description:  "Full access to every module",
			Permissions:  permission.GrantSet{},
			IsSystemRole: true,
		}
		sales := roleDatamodel.Role{
			CompanyID:   company.ID,
			RoleName:    "Sales",
			Description: "Sales staff",
			Permissions: permission.GrantSet{
				"employees": {"view"},
				"roles":     {"view"},
			},
			CreatedBy: &owner.ID,
		}
		for _, r := range []*roleDatamodel.Role{&superAdmin, &sales} {
			if err := db.Create(r).Error; err != nil {
				log.Fatalf("failed to seed role %s: %v", r.RoleName, err)
			}
		}

		if err := db.Create(&roleDatamodel.UserRole{UserID: owner.ID, RoleID: superAdmin.ID}).Error; err != nil {
			log.Fatalf("failed to assign role: %v", err)
		}

		invite := invitationDatamodel.Invitation{
			CompanyID: company.ID,
			Email:     "sales@acme.test",
			FullName:  "Sam Seller",
			Code:      "DEMO1234",
			RoleID:    &sales.ID,
			ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
			CreatedBy: &owner.ID,
		}
		if err := db.Create(&invite).Error; err != nil {
			log.Fatalf("failed to seed invitation: %v", err)
		}

		fmt.Println("Seeded company:", company.Name)
		fmt.Println("Seeded owner:", owner.Email)
		fmt.Println("Seeded invitation code:", invite.Code)
	},
}
