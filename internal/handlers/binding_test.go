package handlers

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type bindTarget struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestBindNestedOrFlat(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		key         string
		body        string
		expected    bindTarget
		expectError bool
	}{
		{
			name:     "Nested Structure",
			key:      "payment",
			body:     `{"payment": {"name": "Pulizia", "count": 3}}`,
			expected: bindTarget{Name: "Pulizia", Count: 3},
		},
		{
			name:     "Flat Structure",
			key:      "payment",
			body:     `{"name": "Impianto", "count": 6}`,
			expected: bindTarget{Name: "Impianto", Count: 6},
		},
		{
			name:     "Missing Key Falls Back to Flat",
			key:      "payment",
			body:     `{"other": "value", "name": "Otturazione", "count": 2}`,
			expected: bindTarget{Name: "Otturazione", Count: 2},
		},
		{
			name:        "Invalid Field Type",
			key:         "payment",
			body:        `{"name": "X", "count": "tre"}`,
			expectError: true,
		},
		{
			name:        "Nested but Invalid Content",
			key:         "payment",
			body:        `{"payment": {"name": "X", "count": "tre"}}`,
			expectError: true,
		},
		{
			name:        "Nested Key Present but Invalid Type",
			key:         "payment",
			body:        `{"payment": "some string"}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("POST", "/", bytes.NewBufferString(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var result bindTarget
			err := BindNestedOrFlat(c, tt.key, &result)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}
