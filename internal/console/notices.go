package console

import "github.com/chaz8081/placar/internal/scoreboard"

// NoticeQueue hands session notices to the screen. It is a
// scoreboard.Notifier that never blocks: when the screen falls behind,
// new notices are dropped after being logged.
type NoticeQueue struct {
	ch  chan scoreboard.Notice
	log scoreboard.Notifier
}

// NewNoticeQueue creates a queue holding up to size notices.
func NewNoticeQueue(size int) *NoticeQueue {
	if size < 1 {
		size = 1
	}
	return &NoticeQueue{
		ch:  make(chan scoreboard.Notice, size),
		log: scoreboard.LogNotifier{},
	}
}

func (q *NoticeQueue) Notify(n scoreboard.Notice) {
	q.log.Notify(n)
	select {
	case q.ch <- n:
	default:
	}
}

// drain returns the newest pending notice, if any.
func (q *NoticeQueue) drain() (scoreboard.Notice, bool) {
	var (
		last scoreboard.Notice
		ok   bool
	)
	for {
		select {
		case n := <-q.ch:
			last, ok = n, true
		default:
			return last, ok
		}
	}
}
