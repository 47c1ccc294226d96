package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchRequestValidate(t *testing.T) {
	cases := []struct {
		name    string
		req     SearchRequest
		wantErr string
	}{
		{
			name: "valid range",
			req:  SearchRequest{Location: "Paris", StartDate: "2024-05-01", EndDate: "2024-05-03"},
		},
		{
			name: "single day",
			req:  SearchRequest{Location: "Paris", StartDate: "2024-05-01", EndDate: "2024-05-01"},
		},
		{
			name:    "missing location",
			req:     SearchRequest{StartDate: "2024-05-01", EndDate: "2024-05-03"},
			wantErr: "location is required",
		},
		{
			name:    "blank location",
			req:     SearchRequest{Location: "   ", StartDate: "2024-05-01", EndDate: "2024-05-03"},
			wantErr: "location is required",
		},
		{
			name:    "missing end date",
			req:     SearchRequest{Location: "Paris", StartDate: "2024-05-01"},
			wantErr: "endDate is required",
		},
		{
			name:    "malformed start date",
			req:     SearchRequest{Location: "Paris", StartDate: "05/01/2024", EndDate: "2024-05-03"},
			wantErr: "startDate must be a YYYY-MM-DD date",
		},
		{
			name:    "impossible calendar date",
			req:     SearchRequest{Location: "Paris", StartDate: "2024-02-30", EndDate: "2024-03-03"},
			wantErr: "startDate must be a YYYY-MM-DD date",
		},
		{
			name:    "end before start",
			req:     SearchRequest{Location: "Paris", StartDate: "2024-05-03", EndDate: "2024-05-01"},
			wantErr: "startDate must not be after endDate",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrBadRequest)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
