package statemachine

// history 状态历史栈，栈顶在切片末尾
type history []State

func (h *history) push(s State) {
	*h = append(*h, s)
}

func (h *history) pop() (State, bool) {
	n := len(*h)
	if n == 0 {
		return "", false
	}
	s := (*h)[n-1]
	*h = (*h)[:n-1]
	return s, true
}

func (h *history) clear() {
	*h = nil
}

func (h history) snapshot() []State {
	return append([]State(nil), h...)
}
