package wordpress

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimeUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"rfc3339", `"2021-03-04T10:30:00Z"`, time.Date(2021, 3, 4, 10, 30, 0, 0, time.UTC), false},
		{"naive wordpress", `"2021-03-04T10:30:00"`, time.Date(2021, 3, 4, 10, 30, 0, 0, time.UTC), false},
		{"space separated", `"2021-03-04 10:30:00"`, time.Date(2021, 3, 4, 10, 30, 0, 0, time.UTC), false},
		{"null", `null`, time.Time{}, false},
		{"empty", `""`, time.Time{}, false},
		{"garbage", `"yesterday"`, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var parsed Time
			err := json.Unmarshal([]byte(tt.input), &parsed)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %s", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshal %s: %v", tt.input, err)
			}
			if !parsed.Time.Equal(tt.want) {
				t.Errorf("parsed %v, expected %v", parsed.Time, tt.want)
			}
		})
	}
}

func TestPostPublishedAt(t *testing.T) {
	local := time.Date(2021, 3, 4, 10, 30, 0, 0, time.UTC)
	gmt := time.Date(2021, 3, 4, 15, 30, 0, 0, time.UTC)

	post := Post{Date: Time{local}, DateGMT: Time{gmt}}
	if got := post.PublishedAt(); !got.Equal(gmt) {
		t.Errorf("expected GMT date to win, got %v", got)
	}

	post = Post{Date: Time{local}}
	if got := post.PublishedAt(); !got.Equal(local) {
		t.Errorf("expected fallback to local date, got %v", got)
	}
}

func TestPostEmbeddedAuthor(t *testing.T) {
	post := Post{}
	if post.EmbeddedAuthor() != nil {
		t.Error("expected nil author without an embedded block")
	}

	post.Embedded = &Embedded{Author: []User{{ID: 7, Name: "Ann Writer"}}}
	author := post.EmbeddedAuthor()
	if author == nil || author.ID != 7 {
		t.Errorf("expected embedded author 7, got %+v", author)
	}
}

func TestPostFeaturedImage(t *testing.T) {
	post := Post{Embedded: &Embedded{
		FeaturedMedia: []Media{
			{ID: 1}, // no source URL, skipped
			{ID: 2, SourceURL: "https://cdn.example.com/img.jpg"},
		},
	}}

	img := post.FeaturedImage()
	if img == nil || img.ID != 2 {
		t.Errorf("expected media 2, got %+v", img)
	}

	if (&Post{}).FeaturedImage() != nil {
		t.Error("expected nil featured image without an embedded block")
	}
}

func TestMediaThumbnailURL(t *testing.T) {
	tests := []struct {
		name  string
		media Media
		want  string
	}{
		{
			"prefers medium",
			Media{
				SourceURL: "https://x/full.jpg",
				MediaDetails: &MediaDetails{Sizes: map[string]MediaSize{
					"medium":    {SourceURL: "https://x/medium.jpg"},
					"thumbnail": {SourceURL: "https://x/thumb.jpg"},
				}},
			},
			"https://x/medium.jpg",
		},
		{
			"falls back to thumbnail",
			Media{
				SourceURL: "https://x/full.jpg",
				MediaDetails: &MediaDetails{Sizes: map[string]MediaSize{
					"thumbnail": {SourceURL: "https://x/thumb.jpg"},
				}},
			},
			"https://x/thumb.jpg",
		},
		{
			"falls back to original",
			Media{SourceURL: "https://x/full.jpg"},
			"https://x/full.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.media.ThumbnailURL(); got != tt.want {
				t.Errorf("ThumbnailURL() = %q, expected %q", got, tt.want)
			}
		})
	}
}
