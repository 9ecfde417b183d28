package service

import "sync"

// contactLocks 按联系人 ID 串行化临时条目的"清理-判定-写入"序列
//
// 同一联系人的两条消息并发到达时，必须保证只有一条临时记录存活且
// 两次判定结果一致；不同联系人互不阻塞。条目带引用计数，最后一个
// 持有者释放时回收，锁表不随联系人数量无限增长。
type contactLocks struct {
	mu    sync.Mutex
	locks map[int64]*contactLock
}

type contactLock struct {
	mu   sync.Mutex
	refs int
}

func newContactLocks() *contactLocks {
	return &contactLocks{
		locks: make(map[int64]*contactLock),
	}
}

// Lock 锁定指定联系人，返回解锁函数
func (c *contactLocks) Lock(userID int64) func() {
	c.mu.Lock()
	l, ok := c.locks[userID]
	if !ok {
		l = &contactLock{}
		c.locks[userID] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, userID)
		}
		c.mu.Unlock()
	}
}
