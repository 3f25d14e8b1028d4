package telegram

import (
	"context"
	"sync"

	"github.com/keagan/clipbot/internal/conversation"
)

// backlogWarn is the queue depth at which route starts warning about a chat
const backlogWarn = 16

// lane holds the messages waiting for one chat's worker
type lane struct {
	queue []conversation.Message
}

// lanes runs one goroutine per active chat so a chat's messages are handled
// in arrival order while other chats proceed in parallel. A lane's worker
// exits once its queue drains; the next message starts a new one.
type lanes struct {
	handle func(context.Context, conversation.Message)

	mu    sync.Mutex
	chats map[int64]*lane
	wg    sync.WaitGroup
}

func newLanes(handle func(context.Context, conversation.Message)) *lanes {
	return &lanes{
		handle: handle,
		chats:  make(map[int64]*lane),
	}
}

// dispatch appends msg to its chat's queue and never waits on the handler,
// so a chat stuck in a long download cannot stall the update loop.
func (l *lanes) dispatch(ctx context.Context, msg conversation.Message) {
	if ctx.Err() != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if ln, ok := l.chats[msg.ChatID]; ok {
		ln.queue = append(ln.queue, msg)
		return
	}

	ln := &lane{queue: []conversation.Message{msg}}
	l.chats[msg.ChatID] = ln
	l.wg.Add(1)
	go l.run(ctx, msg.ChatID, ln)
}

func (l *lanes) run(ctx context.Context, chatID int64, ln *lane) {
	defer l.wg.Done()

	for {
		msg, ok := l.next(ctx, chatID, ln)
		if !ok {
			return
		}
		l.handle(ctx, msg)
	}
}

// next pops the head of ln's queue. An empty queue or a cancelled context
// retires the lane under the same lock dispatch appends with.
func (l *lanes) next(ctx context.Context, chatID int64, ln *lane) (conversation.Message, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(ln.queue) == 0 || ctx.Err() != nil {
		delete(l.chats, chatID)
		return conversation.Message{}, false
	}

	msg := ln.queue[0]
	ln.queue[0] = conversation.Message{}
	ln.queue = ln.queue[1:]
	return msg, true
}

// active counts running lanes
func (l *lanes) active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.chats)
}

// pending reports how many messages wait behind chatID's current one
func (l *lanes) pending(chatID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ln, ok := l.chats[chatID]; ok {
		return len(ln.queue)
	}
	return 0
}

// wait blocks until every lane has exited
func (l *lanes) wait() {
	l.wg.Wait()
}
