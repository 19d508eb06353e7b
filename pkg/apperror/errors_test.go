package apperror

import (
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestKindOf(t *testing.T) {
	Convey("kinds survive wrapping", t, func() {
		err := fmt.Errorf("load proposal: %w", Conflict("version moved"))
		So(KindOf(err), ShouldEqual, KindConflict)
		So(IsKind(err, KindConflict), ShouldBeTrue)
		So(IsKind(err, KindNotFound), ShouldBeFalse)
	})

	Convey("foreign errors have no kind", t, func() {
		So(KindOf(fmt.Errorf("plain")), ShouldEqual, 0)
		So(KindOf(nil), ShouldEqual, 0)
	})
}
