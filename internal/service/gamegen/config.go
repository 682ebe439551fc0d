package gamegen

import (
	"github.com/yourusername/classquiz-api/internal/domain/entity"
)

// Constants for synthesis rules
const (
	// MultipleChoiceDistractors - число неверных вариантов в multiple_choice
	MultipleChoiceDistractors = 3
	// DndGroupSize - число пар вопрос-ответ в одном dnd-вопросе
	DndGroupSize = 3
)

// Config содержит настройки генератора вопросов
type Config struct {
	// Число дистракторов для multiple_choice
	Distractors int
	// Размер группы для dnd (сопоставление)
	DndGroup int
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		Distractors: MultipleChoiceDistractors,
		DndGroup:    DndGroupSize,
	}
}

// MinAmountForType возвращает минимальный размер выборки для типа вопроса.
// Дистракторы берутся из остальных выбранных вопросов, поэтому ограничение
// накладывается на размер выборки, а не на размер банка:
//   - multiple_choice: текущий вопрос + 3 дистрактора
//   - dnd: группа из 3 пар
//   - true_false: текущий вопрос + 1 дистрактор для ложного утверждения
//   - constructed_response: дистракторы не нужны
func (c *Config) MinAmountForType(quizType string) int {
	switch quizType {
	case entity.QuizTypeMultipleChoice:
		return c.Distractors + 1
	case entity.QuizTypeDnd:
		return c.DndGroup
	case entity.QuizTypeTrueFalse:
		return 2
	default:
		return 1
	}
}
