// Package cronjob runs the periodic deadline sweeper. Topic submission is
// enforced at write time by the workflow engine; the sweeper only reminds
// students whose lock date is close.
package cronjob

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/grad-lab/capstone-backend/dao/model"
	"github.com/grad-lab/capstone-backend/pkg/alert"
	"github.com/grad-lab/capstone-backend/pkg/utils"
)

// ReminderWindow is how far ahead of the topic lock date students get mailed.
const ReminderWindow = 72 * time.Hour

type Manager struct {
	cron   *cron.Cron
	db     *gorm.DB
	mailer alert.Mailer
}

func NewManager(db *gorm.DB, mailer alert.Mailer) *Manager {
	return &Manager{
		cron:   cron.New(),
		db:     db,
		mailer: mailer,
	}
}

// Start registers the sweep job with the given cron spec and starts the
// scheduler.
func (m *Manager) Start(spec string) error {
	_, err := m.cron.AddFunc(spec, func() {
		if err := m.SweepOnce(context.Background()); err != nil {
			klog.Errorf("deadline sweep failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	m.cron.Start()
	klog.Infof("deadline sweeper started with spec %q", spec)
	return nil
}

func (m *Manager) Stop() {
	<-m.cron.Stop().Done()
}

// SweepOnce mails a reminder for every proposal whose topic is still
// unsubmitted and whose lock date falls inside the reminder window.
func (m *Manager) SweepOnce(ctx context.Context) error {
	now := utils.GetLocalTime()

	var projects []model.ProposedProject
	err := m.db.WithContext(ctx).
		Preload("Members.User").
		Where("status = ?", model.StatusTopicSubmissionPending).
		Where("topic_lock_date IS NOT NULL").
		Find(&projects).Error
	if err != nil {
		return err
	}

	reminded := 0
	for i := range projects {
		p := &projects[i]
		if !DueForReminder(p.TopicLockDate, now) {
			continue
		}
		for j := range p.Members {
			member := &p.Members[j]
			if member.Role != model.MemberRoleStudent {
				continue
			}
			attrs := member.User.Attributes.Data()
			if attrs.Email == nil {
				klog.Warningf("student %s has no email, skipping reminder", member.User.Name)
				continue
			}
			subject, body := ReminderMessage(p.Title, *p.TopicLockDate)
			if err := m.mailer.SendMessageTo(ctx, *attrs.Email, subject, body); err == nil {
				reminded++
			}
		}
	}
	klog.Infof("deadline sweep done: %d proposals checked, %d reminders sent", len(projects), reminded)
	return nil
}

// DueForReminder reports whether the lock date is in the future but inside
// the reminder window.
func DueForReminder(lockDate *time.Time, now time.Time) bool {
	if lockDate == nil {
		return false
	}
	return lockDate.After(now) && lockDate.Sub(now) <= ReminderWindow
}

// ReminderMessage builds the reminder mail for an unsubmitted topic.
func ReminderMessage(title string, lockDate time.Time) (subject, body string) {
	subject = "Capstone topic submission deadline approaching"
	body = fmt.Sprintf(
		"Your proposed topic %q has not been submitted for advisor review.\n"+
			"Submissions lock on %s.",
		title, lockDate.Format("2006-01-02 15:04"))
	return subject, body
}
