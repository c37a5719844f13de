// Package pubsub 实现通用的主题发布/订阅，支持精确主题与末尾通配 '*' 的前缀订阅。
package pubsub

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/himomohi/MaziSpace/internal/trie"
)

var (
	ErrInvalidSubject    = errors.New("invalid subject")
	ErrEmptySubscriberID = errors.New("subscriber id is empty")
	ErrNilHandler        = errors.New("handler is nil")
)

// Handler 为订阅者的回调函数类型
type Handler[T any] func(subject string, content T)

// subscribing 表示某主题前缀的订阅集合（精确+通配）
type subscribing struct {
	subscribers         stringSet // 精确订阅该主题的订阅者
	wildcardSubscribers stringSet // 订阅 subject + '*' 的订阅者
}

func newSubscribing() *subscribing {
	return &subscribing{
		subscribers:         stringSet{},
		wildcardSubscribers: stringSet{},
	}
}

func (s *subscribing) idle() bool {
	return s == nil || (len(s.subscribers) == 0 && len(s.wildcardSubscribers) == 0)
}

// GenericPubSub 为通用发布订阅服务
//   - 支持精确主题订阅与前缀通配订阅（仅允许末尾 '*')
//   - 发布时沿前缀树逐层匹配通配订阅，末端匹配精确订阅
//   - 每个订阅者只保存一个 Handler
//
// Handler 在发布者的 goroutine 中同步执行，且执行期间持有读锁，
// 因此 Handler 内不能再调用 Subscribe / Unsubscribe。
type GenericPubSub[T any] struct {
	mu   sync.RWMutex
	tree trie.Trie[*subscribing]

	subscriberExactSubjects    map[string]stringSet
	subscriberWildcardSubjects map[string]stringSet
	subscriberHandlers         map[string]Handler[T]
}

// NewGenericPubSub 创建一个新的通用发布订阅服务实例
func NewGenericPubSub[T any]() *GenericPubSub[T] {
	return &GenericPubSub[T]{
		subscriberExactSubjects:    map[string]stringSet{},
		subscriberWildcardSubjects: map[string]stringSet{},
		subscriberHandlers:         map[string]Handler[T]{},
	}
}

// splitSubject 校验 '*' 的位置并拆分出前缀与是否通配
func splitSubject(subject string) (prefix string, wildcard bool, err error) {
	if i := strings.IndexByte(subject, '*'); i >= 0 && i != len(subject)-1 {
		return "", false, fmt.Errorf("%w: '*' can only be used at the end of %q", ErrInvalidSubject, subject)
	}
	if strings.HasSuffix(subject, "*") {
		return subject[:len(subject)-1], true, nil
	}
	return subject, false, nil
}

// Subscribe 订阅主题（支持末尾通配 '*')
//   - 主题 "*" 表示订阅所有主题
//   - 重复订阅将更新该订阅者的 Handler
func (ps *GenericPubSub[T]) Subscribe(subscriberID string, subject string, handler Handler[T]) error {
	if subscriberID == "" {
		return ErrEmptySubscriberID
	}
	if handler == nil {
		return ErrNilHandler
	}
	prefix, wildcard, err := splitSubject(subject)
	if err != nil {
		return err
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.subscriberHandlers[subscriberID] = handler

	subs := ps.getSubscribing(prefix, true)
	index := ps.subscriberExactSubjects
	if wildcard {
		subs.wildcardSubscribers.Add(subscriberID)
		index = ps.subscriberWildcardSubjects
	} else {
		subs.subscribers.Add(subscriberID)
	}
	set := index[subscriberID]
	if set == nil {
		set = stringSet{}
		index[subscriberID] = set
	}
	set.Add(prefix)
	return nil
}

// Unsubscribe 取消订阅主题（支持末尾通配 '*')
func (ps *GenericPubSub[T]) Unsubscribe(subscriberID string, subject string) error {
	prefix, wildcard, err := splitSubject(subject)
	if err != nil {
		return err
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	subs := ps.getSubscribing(prefix, false)
	if subs == nil {
		return nil
	}
	if wildcard {
		subs.wildcardSubscribers.Remove(subscriberID)
		if set := ps.subscriberWildcardSubjects[subscriberID]; set != nil {
			set.Remove(prefix)
		}
	} else {
		subs.subscribers.Remove(subscriberID)
		if set := ps.subscriberExactSubjects[subscriberID]; set != nil {
			set.Remove(prefix)
		}
	}
	ps.prune(prefix)
	ps.forgetIfIdle(subscriberID)
	return nil
}

// UnsubscribeAll 取消该订阅者的所有订阅（包括精确和通配）
func (ps *GenericPubSub[T]) UnsubscribeAll(subscriberID string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	for prefix := range ps.subscriberExactSubjects[subscriberID] {
		if subs := ps.getSubscribing(prefix, false); subs != nil {
			subs.subscribers.Remove(subscriberID)
		}
		ps.prune(prefix)
	}
	for prefix := range ps.subscriberWildcardSubjects[subscriberID] {
		if subs := ps.getSubscribing(prefix, false); subs != nil {
			subs.wildcardSubscribers.Remove(subscriberID)
		}
		ps.prune(prefix)
	}
	delete(ps.subscriberExactSubjects, subscriberID)
	delete(ps.subscriberWildcardSubjects, subscriberID)
	delete(ps.subscriberHandlers, subscriberID)
}

// Publish 发布主题与内容（主题中不允许出现 '*')
func (ps *GenericPubSub[T]) Publish(subject string, content T) error {
	if strings.ContainsRune(subject, '*') {
		return fmt.Errorf("%w: %q contains '*'", ErrInvalidSubject, subject)
	}

	ps.mu.RLock()
	defer ps.mu.RUnlock()

	node := &ps.tree
	for idx := 0; node != nil; idx++ {
		// 当前层的通配订阅者（prefix + '*')
		if subs := node.Val; subs != nil {
			ps.deliver(subs.wildcardSubscribers, subject, content)
		}
		if idx == len(subject) {
			if subs := node.Val; subs != nil {
				ps.deliver(subs.subscribers, subject, content)
			}
			break
		}
		node = node.ChildIfExists(subject[idx])
	}
	return nil
}

// IsSubscribed 判断订阅者是否会收到该主题的消息
func (ps *GenericPubSub[T]) IsSubscribed(subscriberID string, subject string) bool {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	if ps.subscriberExactSubjects[subscriberID].Contains(subject) {
		return true
	}
	for prefix := range ps.subscriberWildcardSubjects[subscriberID] {
		if strings.HasPrefix(subject, prefix) {
			return true
		}
	}
	return false
}

// SubscriberCount 返回当前持有 Handler 的订阅者数量
func (ps *GenericPubSub[T]) SubscriberCount() int {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return len(ps.subscriberHandlers)
}

func (ps *GenericPubSub[T]) deliver(ids stringSet, subject string, content T) {
	for subscriberID := range ids {
		if h := ps.subscriberHandlers[subscriberID]; h != nil {
			h(subject, content)
		}
	}
}

// forgetIfIdle 订阅者不再订阅任何主题时释放其 Handler
func (ps *GenericPubSub[T]) forgetIfIdle(subscriberID string) {
	if len(ps.subscriberExactSubjects[subscriberID]) > 0 || len(ps.subscriberWildcardSubjects[subscriberID]) > 0 {
		return
	}
	delete(ps.subscriberExactSubjects, subscriberID)
	delete(ps.subscriberWildcardSubjects, subscriberID)
	delete(ps.subscriberHandlers, subscriberID)
}

// prune 删除 prefix 路径上已无订阅者的节点，需持有写锁
func (ps *GenericPubSub[T]) prune(prefix string) {
	ps.tree.Prune(prefix, (*subscribing).idle)
}

// getSubscribing 获取指定主题前缀的订阅集合（按需创建）
func (ps *GenericPubSub[T]) getSubscribing(prefix string, newIfNotExists bool) *subscribing {
	if !newIfNotExists {
		if node := ps.tree.Find(prefix); node != nil {
			return node.Val
		}
		return nil
	}
	node := ps.tree.Sub(prefix)
	if node.Val == nil {
		node.Val = newSubscribing()
	}
	return node.Val
}
