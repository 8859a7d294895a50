package cache

// listItem is an entry linked into the recency list.
type listItem struct {
	Entry
	prev *listItem
	next *listItem
}

// list is a doubly-linked recency list: head is most recently used.
type list struct {
	head *listItem
	tail *listItem
	len  int
}

func (l *list) pushFront(item *listItem) {
	item.prev = nil
	item.next = l.head
	if l.head != nil {
		l.head.prev = item
	}
	l.head = item
	if l.tail == nil {
		l.tail = item
	}
	l.len++
}

func (l *list) remove(item *listItem) {
	if item.prev != nil {
		item.prev.next = item.next
	} else {
		l.head = item.next
	}
	if item.next != nil {
		item.next.prev = item.prev
	} else {
		l.tail = item.prev
	}
	item.prev, item.next = nil, nil
	l.len--
}

func (l *list) moveToFront(item *listItem) {
	if item == l.head {
		return
	}
	l.remove(item)
	l.pushFront(item)
}

func (l *list) removeBack() *listItem {
	if l.tail == nil {
		return nil
	}
	item := l.tail
	l.remove(item)
	return item
}
