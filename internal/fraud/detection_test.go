package fraud

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectShapes(t *testing.T) {
	u := Unary(7)
	assert.False(t, u.IsBinary())
	assert.Equal(t, []int64{7}, u.Participants())
	assert.True(t, u.Includes(7))
	assert.False(t, u.Includes(8))

	b := Binary(9, 3)
	assert.True(t, b.IsBinary())
	assert.Equal(t, []int64{3, 9}, b.Participants())

	same := Binary(4, 4)
	assert.False(t, same.IsBinary())
	assert.Equal(t, []int64{4}, same.Participants())
}

func TestSubjectJSON(t *testing.T) {
	tests := []struct {
		name    string
		subject Subject
		want    string
	}{
		{"unary", Unary(5), `{"participant_id":5}`},
		{"binary", Binary(2, 1), `{"involved_participants":[1,2]}`},
		{"empty", Subject{}, `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.subject)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))

			var back Subject
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, tt.subject.Participants(), back.Participants())
		})
	}
}

func TestSubjectJSONRejectsAmbiguous(t *testing.T) {
	var s Subject
	assert.Error(t, json.Unmarshal([]byte(`{"participant_id":1,"involved_participants":[1,2]}`), &s))
	assert.Error(t, json.Unmarshal([]byte(`{"involved_participants":[1,2,3]}`), &s))
}
