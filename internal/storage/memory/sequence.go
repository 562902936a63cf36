package memory

import "sync/atomic"

// Sequence выдаёт строго возрастающие идентификаторы, начиная с 1.
// Безопасен для конкурентного использования; нулевое значение готово к работе.
type Sequence struct {
	last atomic.Int64
}

// Next возвращает следующий идентификатор.
func (s *Sequence) Next() int64 {
	return s.last.Add(1)
}
