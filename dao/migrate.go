package dao

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/grad-lab/capstone-backend/dao/model"
)

// Migrate applies schema migrations. The initial migration creates every
// table; later structural changes get their own entries.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "202502_init",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&model.User{},
					&model.ProposedProject{},
					&model.ProposedProjectMember{},
					&model.ProposedProjectComment{},
					&model.ProposedProjectStatusHistory{},
					&model.ProposalOutline{},
					&model.ProjectEvaluation{},
					&model.EvaluationScore{},
					&model.CommitteeMember{},
					&model.ProjectFile{},
				)
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(
					"project_files",
					"committee_members",
					"evaluation_scores",
					"project_evaluations",
					"proposal_outlines",
					"proposed_project_status_histories",
					"proposed_project_comments",
					"proposed_project_members",
					"proposed_projects",
					"users",
				)
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return err
	}
	klog.Info("migrations applied")
	return nil
}
