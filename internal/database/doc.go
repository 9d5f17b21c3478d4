// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations
//	├── runs/            # Import run + imported post ledger
//	└── progress/        # Live import progress row
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	// Initialize database connection
//	db, err := database.NewDatabase("./bookpress.db")
//
//	// Create domain-specific repositories
//	runsRepo := runs.NewRepository(db.DB)
//	progressRepo := progress.NewRepository(db.DB)
//
//	// Use repositories
//	run, err := runsRepo.GetRun(runID)
//	imported, err := runsRepo.IsPostImported(postID)
//
// # Interface Implementations
//
//   - runs.Repository: implements importer.Ledger
//   - progress.Repository: implements importer.ProgressReporter
//
// # Adding a New Domain
//
// To add a new domain:
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Implement the required interface
//  5. Add compile-time interface check: var _ SomeInterface = (*Repository)(nil)
package database
