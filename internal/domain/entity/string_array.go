package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// StringArray - пользовательский тип для хранения упорядоченных списков строк в JSONB.
// Используется для Questions/Answers/CorrectAnswers в GameQuiz и UserAnswer в AnswerHistory:
// порядок элементов значим (позиционное выравнивание при проверке ответов).
type StringArray []string

// Scan реализует интерфейс sql.Scanner для StringArray.
// Используется GORM для чтения JSONB данных из базы.
func (a *StringArray) Scan(value interface{}) error {
	// NULL из базы трактуем как пустой список
	if value == nil {
		*a = StringArray{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*a = StringArray{}
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// Value реализует интерфейс driver.Valuer для StringArray.
func (a StringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return []byte("[]"), nil // Пустой JSON массив вместо null
	}
	return json.Marshal(a)
}
