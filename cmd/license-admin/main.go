package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"checkerq-admin-api/config"
	"checkerq-admin-api/internal/database"
	"checkerq-admin-api/internal/license"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	fmt.Println("========================================")
	fmt.Println(" CheckerQ License Administration Tool")
	fmt.Println("========================================")
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := zerolog.New(os.Stderr).Level(zerolog.WarnLevel)
	db, err := database.NewDB(database.Config{
		Host:     cfg.DatabaseConfig.Host,
		Port:     cfg.DatabaseConfig.Port,
		User:     cfg.DatabaseConfig.User,
		Password: cfg.DatabaseConfig.Password,
		Database: cfg.DatabaseConfig.Database,
		SSLMode:  cfg.DatabaseConfig.SSLMode,
	}, logger)
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := database.NewRepository(db)
	svc := license.NewService(repo, nil, logger)
	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Println("\nOptions:")
		fmt.Println("  1. Generate license keys")
		fmt.Println("  2. List licenses")
		fmt.Println("  3. Validate a license key")
		fmt.Println("  4. Revoke a license")
		fmt.Println("  5. Show tier info")
		fmt.Println("  6. Exit")
		fmt.Print("\nSelect option: ")

		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(input)

		switch input {
		case "1":
			generateKeys(reader, svc)
		case "2":
			listLicenses(reader, svc)
		case "3":
			validateKey(reader, svc)
		case "4":
			revokeLicense(reader, svc, repo)
		case "5":
			showTierInfo()
		case "6":
			fmt.Println("Goodbye!")
			os.Exit(0)
		default:
			fmt.Println("Invalid option")
		}
	}
}

func readTier(reader *bufio.Reader) string {
	fmt.Println("License tiers:")
	fmt.Println("  1. Free       (5 assessments, 50 evaluations)")
	fmt.Println("  2. Pro        (100 assessments, 1000 evaluations, exports)")
	fmt.Println("  3. Enterprise (unlimited, API access)")
	fmt.Print("Select tier (1-3): ")

	input, _ := reader.ReadString('\n')
	switch strings.TrimSpace(input) {
	case "1":
		return license.TierFree
	case "2":
		return license.TierPro
	case "3":
		return license.TierEnterprise
	default:
		fmt.Println("Invalid tier, defaulting to Free")
		return license.TierFree
	}
}

func generateKeys(reader *bufio.Reader, svc *license.Service) {
	fmt.Println("\n--- Generate License Keys ---")
	tier := readTier(reader)

	fmt.Print("How many keys (1-100): ")
	input, _ := reader.ReadString('\n')
	count, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || count < 1 || count > 100 {
		fmt.Println("Invalid count, defaulting to 1")
		count = 1
	}

	fmt.Print("Expiry in days (empty for no expiry): ")
	input, _ = reader.ReadString('\n')
	input = strings.TrimSpace(input)

	var expiresAt *time.Time
	if input != "" {
		days, err := strconv.Atoi(input)
		if err != nil || days < 1 {
			fmt.Println("Invalid expiry, keys will not expire")
		} else {
			t := time.Now().AddDate(0, 0, days)
			expiresAt = &t
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	licenses, err := svc.IssueBatch(ctx, license.BatchSpec{Tier: tier, Count: count, ExpiresAt: expiresAt})
	if err != nil {
		fmt.Printf("Failed to generate keys: %v\n", err)
		return
	}

	fmt.Println("\n========================================")
	fmt.Printf("  Generated %d %s license(s):\n", len(licenses), tier)
	for _, lic := range licenses {
		fmt.Printf("  %s\n", lic.Key)
	}
	if expiresAt != nil {
		fmt.Printf("  Expires: %s\n", expiresAt.Format("2006-01-02"))
	}
	fmt.Println("========================================")
}

func listLicenses(reader *bufio.Reader, svc *license.Service) {
	fmt.Print("\nFilter by status (active/expired/revoked, empty for all): ")
	input, _ := reader.ReadString('\n')
	status := strings.TrimSpace(input)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	licenses, err := svc.List(ctx, status, "", 50, 0)
	if err != nil {
		fmt.Printf("Failed to list licenses: %v\n", err)
		return
	}
	if len(licenses) == 0 {
		fmt.Println("No licenses found")
		return
	}

	fmt.Printf("\n%-32s %-12s %-10s %-38s\n", "KEY", "TIER", "STATUS", "USER")
	for _, lic := range licenses {
		user := "-"
		if lic.UserID != nil {
			user = lic.UserID.String()
		}
		fmt.Printf("%-32s %-12s %-10s %-38s\n", lic.Key, lic.Tier, lic.Status, user)
	}
	fmt.Printf("\nShowing %d license(s)\n", len(licenses))
}

func validateKey(reader *bufio.Reader, svc *license.Service) {
	fmt.Print("\nEnter license key: ")
	input, _ := reader.ReadString('\n')
	key := strings.TrimSpace(input)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	lic, err := svc.Validate(ctx, key)
	if err != nil {
		fmt.Printf("INVALID: %v\n", err)
		return
	}

	fmt.Println("\n========================================")
	fmt.Printf("  Key:    %s\n", lic.Key)
	fmt.Printf("  Tier:   %s\n", lic.Tier)
	fmt.Printf("  Status: %s\n", lic.Status)
	if lic.UserID != nil {
		fmt.Printf("  User:   %s\n", lic.UserID.String())
	}
	if lic.ExpiresAt != nil {
		fmt.Printf("  Expires: %s\n", lic.ExpiresAt.Format("2006-01-02"))
	}
	fmt.Println("========================================")
}

func revokeLicense(reader *bufio.Reader, svc *license.Service, repo *database.Repository) {
	fmt.Print("\nEnter license key to revoke: ")
	input, _ := reader.ReadString('\n')
	key := strings.TrimSpace(input)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	lic, err := repo.GetLicenseByKey(ctx, license.NormalizeKey(key))
	if err != nil {
		fmt.Printf("Lookup failed: %v\n", err)
		return
	}
	if lic == nil {
		fmt.Println("License not found")
		return
	}

	fmt.Printf("Revoke %s (%s, %s)? Type 'yes' to confirm: ", lic.Key, lic.Tier, lic.Status)
	input, _ = reader.ReadString('\n')
	if strings.TrimSpace(input) != "yes" {
		fmt.Println("Aborted")
		return
	}

	revoked, err := svc.Revoke(ctx, lic.ID, uuid.Nil)
	if err != nil {
		fmt.Printf("Revoke failed: %v\n", err)
		return
	}
	fmt.Printf("Revoked %s at %s\n", revoked.Key, revoked.RevokedAt.Format(time.RFC3339))
}

func showTierInfo() {
	fmt.Println("\n--- License Tiers ---")
	for _, tier := range []string{license.TierFree, license.TierPro, license.TierEnterprise} {
		limits, err := license.LimitsForTier(tier)
		if err != nil {
			continue
		}
		fmt.Printf("\n%s:\n", strings.ToUpper(tier))
		if limits.MaxAssessments == nil {
			fmt.Println("  Assessments: unlimited")
		} else {
			fmt.Printf("  Assessments: %d\n", *limits.MaxAssessments)
		}
		if limits.MaxEvaluations == nil {
			fmt.Println("  Evaluations: unlimited")
		} else {
			fmt.Printf("  Evaluations: %d\n", *limits.MaxEvaluations)
		}
		features := make([]string, 0, len(limits.Features))
		for name, enabled := range limits.Features {
			if enabled {
				features = append(features, name)
			}
		}
		if len(features) > 0 {
			fmt.Printf("  Features:    %s\n", strings.Join(features, ", "))
		}
	}
}
