package postgres_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	roleDatamodel "github.com/lop-gin/janus/internal/core/datamodel/role"
	"github.com/lop-gin/janus/internal/permission"
	permissionPostgres "github.com/lop-gin/janus/internal/permission/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ = Describe("PermissionRepository", func() {
	var (
		db   *gorm.DB
		repo permission.RepositoryAPI
		ctx  context.Context
	)

	const userID = int64(42)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(db.AutoMigrate(&roleDatamodel.Role{}, &roleDatamodel.UserRole{})).To(Succeed())

		repo = permissionPostgres.NewPermissionRepository(db)
		ctx = context.Background()
	})

	It("should return an empty set for a user with no assignments", func() {
		grants, err := repo.RolesForUser(ctx, userID)

		Expect(err).ToNot(HaveOccurred())
		Expect(grants).To(BeEmpty())
	})

	It("should load each assigned role with its grant set", func() {
		sales := roleDatamodel.Role{
			CompanyID:   7,
			RoleName:    "Sales",
			Permissions: permission.GrantSet{"employees": {"view"}},
		}
		Expect(db.Create(&sales).Error).To(Succeed())
		Expect(db.Create(&roleDatamodel.UserRole{UserID: userID, RoleID: sales.ID}).Error).To(Succeed())

		grants, err := repo.RolesForUser(ctx, userID)

		Expect(err).ToNot(HaveOccurred())
		Expect(grants).To(HaveLen(1))
		Expect(grants[0].RoleName).To(Equal("Sales"))
		Expect(grants[0].Missing).To(BeFalse())
		Expect(grants[0].Grants.Allows("employees", "view")).To(BeTrue())
	})

	It("should surface a dangling assignment as missing instead of failing", func() {
		sales := roleDatamodel.Role{
			CompanyID:   7,
			RoleName:    "Sales",
			Permissions: permission.GrantSet{"employees": {"view"}},
		}
		Expect(db.Create(&sales).Error).To(Succeed())
		Expect(db.Create(&roleDatamodel.UserRole{UserID: userID, RoleID: sales.ID}).Error).To(Succeed())
		Expect(db.Create(&roleDatamodel.UserRole{UserID: userID, RoleID: 9999}).Error).To(Succeed())

		grants, err := repo.RolesForUser(ctx, userID)

		Expect(err).ToNot(HaveOccurred())
		Expect(grants).To(HaveLen(2))

		var missing, present int
		for _, g := range grants {
			if g.Missing {
				missing++
				Expect(g.RoleID).To(Equal(int64(9999)))
			} else {
				present++
			}
		}
		Expect(missing).To(Equal(1))
		Expect(present).To(Equal(1))
	})

	It("should keep other users' assignments out of the result", func() {
		admin := roleDatamodel.Role{
			CompanyID:   7,
			RoleName:    "Admin",
			Permissions: permission.GrantSet{"roles": {"manage"}},
		}
		Expect(db.Create(&admin).Error).To(Succeed())
		Expect(db.Create(&roleDatamodel.UserRole{UserID: userID + 1, RoleID: admin.ID}).Error).To(Succeed())

		grants, err := repo.RolesForUser(ctx, userID)

		Expect(err).ToNot(HaveOccurred())
		Expect(grants).To(BeEmpty())
	})
})
