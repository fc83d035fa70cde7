package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_publicBaseURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "endpoint",
			cfg:  Config{Endpoint: "localhost:9000", Bucket: "covers"},
			want: "http://localhost:9000/covers",
		},
		{
			name: "public endpoint with ssl",
			cfg:  Config{Endpoint: "minio:9000", PublicEndpoint: "cdn.bookbarter.app", Bucket: "covers", UseSSL: true},
			want: "https://cdn.bookbarter.app/covers",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, publicBaseURL(tt.cfg))
		})
	}
}
