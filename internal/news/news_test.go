package news_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jdholdren/newsroom/internal/news"
)

func TestItemEligible(t *testing.T) {
	tests := []struct {
		name   string
		status news.StatusFlag
		want   bool
	}{
		{name: "read", status: 0, want: true},
		{name: "read and updated", status: news.StatusUpdated, want: true},
		{name: "unread", status: news.StatusUnread, want: false},
		{name: "starred", status: news.StatusStarred, want: false},
		{name: "unread and starred", status: news.StatusUnread | news.StatusStarred, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, news.Item{Status: tt.status}.Eligible())
		})
	}
}

func TestItemFlags(t *testing.T) {
	item := news.Item{Status: news.StatusUnread | news.StatusUpdated}

	assert.True(t, item.Unread())
	assert.False(t, item.Starred())
	assert.True(t, item.Status.Has(news.StatusUpdated))
}
