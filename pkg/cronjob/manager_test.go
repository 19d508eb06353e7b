package cronjob

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"k8s.io/utils/ptr"
)

func TestReminder(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("DueForReminder", func(t *testing.T) {
		Convey("a lock date inside the window is due", t, func() {
			So(DueForReminder(ptr.To(now.Add(24*time.Hour)), now), ShouldBeTrue)
			So(DueForReminder(ptr.To(now.Add(ReminderWindow)), now), ShouldBeTrue)
		})

		Convey("too far out, already passed, or unset are not due", t, func() {
			So(DueForReminder(ptr.To(now.Add(ReminderWindow+time.Minute)), now), ShouldBeFalse)
			So(DueForReminder(ptr.To(now.Add(-time.Minute)), now), ShouldBeFalse)
			So(DueForReminder(nil, now), ShouldBeFalse)
		})
	})

	t.Run("ReminderMessage", func(t *testing.T) {
		Convey("the body names the topic and the lock date", t, func() {
			subject, body := ReminderMessage("Realtime bus tracking", now.Add(48*time.Hour))
			So(subject, ShouldContainSubstring, "deadline")
			So(body, ShouldContainSubstring, "Realtime bus tracking")
			So(body, ShouldContainSubstring, "2026-03-12")
		})
	})
}
