package db

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/go-policy/gate"
	"github.com/diewo77/go-policy/internal/models"
)

// ProfileAdmin is the profile seeded with the superadmin wildcard.
const ProfileAdmin = "admin"

// Resources lists the resource types the API serves.
var Resources = []string{"product", "client"}

// profileSeed describes one system profile.
type profileSeed struct {
	Name        string
	Description string
	Permissions []string // "resource:action" format
}

var profileSeeds = []profileSeed{
	{
		Name:        ProfileAdmin,
		Description: "Full system administrator with all permissions",
		Permissions: []string{"*:*"},
	},
	{
		Name:        "viewer",
		Description: "Read-only access to all resources",
		Permissions: []string{"product:list", "product:view", "client:list", "client:view"},
	},
	{
		Name:        "manager",
		Description: "Manage products and clients",
		Permissions: []string{"product:*", "client:*"},
	},
	{
		Name:        "sales",
		Description: "Manage clients, read products",
		Permissions: []string{"client:*", "product:list", "product:view"},
	},
}

// SeedPermissions creates the wildcard and per-action permissions for every
// served resource.
func SeedPermissions(db *gorm.DB) error {
	perms := []models.Permission{models.PermissionFor(gate.PermissionSuperAdmin, "Full system access")}
	for _, res := range Resources {
		perms = append(perms, models.PermissionFor(gate.NewPermission(res, gate.WildcardAll), "All "+res+" actions"))
		for _, a := range gate.CRUD() {
			desc := strings.ToUpper(string(a[:1])) + string(a[1:]) + " " + res
			perms = append(perms, models.PermissionFor(gate.NewPermission(res, a), desc))
		}
	}

	for _, perm := range perms {
		// FirstOrCreate keeps reseeding idempotent.
		if err := db.Where("resource_type = ? AND action = ?", perm.ResourceType, perm.Action).
			FirstOrCreate(&perm).Error; err != nil {
			return fmt.Errorf("seed permission %s: %w", perm.Code(), err)
		}
	}
	return nil
}

// SeedProfiles creates the default system profiles with their permissions.
func SeedProfiles(db *gorm.DB) error {
	if err := SeedPermissions(db); err != nil {
		return err
	}

	for _, p := range profileSeeds {
		var profile models.Profile
		err := db.Where("name = ?", p.Name).First(&profile).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			profile = models.Profile{Name: p.Name, Description: p.Description, IsSystem: true}
			if err := db.Create(&profile).Error; err != nil {
				return fmt.Errorf("create profile %s: %w", p.Name, err)
			}
		case err != nil:
			return err
		}

		var perms []models.Permission
		for _, code := range p.Permissions {
			perm, err := gate.ParsePermission(code)
			if err != nil {
				return fmt.Errorf("profile %s: %w", p.Name, err)
			}
			want := models.PermissionFor(perm, "")
			var row models.Permission
			if err := db.Where("resource_type = ? AND action = ?", want.ResourceType, want.Action).First(&row).Error; err != nil {
				return fmt.Errorf("profile %s: permission %s: %w", p.Name, code, err)
			}
			perms = append(perms, row)
		}
		if err := db.Model(&profile).Association("Permissions").Replace(perms); err != nil {
			return err
		}
	}
	return nil
}

// SeedAdmin creates the admin user with the admin profile when it does not
// exist yet. An empty password skips the step.
func SeedAdmin(db *gorm.DB, email, password string) error {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	var profile models.Profile
	if err := db.Where("name = ?", ProfileAdmin).First(&profile).Error; err != nil {
		return fmt.Errorf("admin profile: %w", err)
	}
	user := models.User{Email: email, Name: "Administrator", ProfileID: &profile.ID}
	if err := user.SetPassword(password); err != nil {
		return err
	}
	return db.Create(&user).Error
}

// Seed initializes the database with required seed data.
// Should be called after Migrate.
func Seed(db *gorm.DB, adminEmail, adminPassword string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := SeedProfiles(tx); err != nil {
			return err
		}
		return SeedAdmin(tx, adminEmail, adminPassword)
	})
}
