// Package schema names the tables of the service and declares the relations
// the repository layer walks when it soft deletes.
package schema

import "github.com/JaimeStill/tollgate/pkg/repository"

const (
	Accounts       = "accounts"
	Engines        = "engines"
	AccountEngines = "account_engines"
	Archives       = "archives"
	BulkJobs       = "bulk_jobs"
)

// Relations builds the registry of every declared relation.
func Relations() *repository.Registry {
	return repository.NewRegistry().
		Register(Accounts,
			repository.OneToMany{
				Name:       "jobs",
				Target:     BulkJobs,
				ForeignKey: "account_id",
				Cascade:    true,
			},
			repository.ManyToMany{
				Name:          "engines",
				Target:        Engines,
				JunctionTable: AccountEngines,
				OwnerColumn:   "account_id",
				TargetColumn:  "engine_id",
				Owner:         true,
				Cascade:       true,
			},
		).
		Register(BulkJobs,
			repository.OneToOne{
				Name:       "archive",
				Target:     Archives,
				JoinColumn: "archive_id",
				Owner:      true,
				Cascade:    true,
			},
		)
}
