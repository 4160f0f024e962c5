package musicbrainz

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultBaseURL = "https://musicbrainz.org/ws/2"

// Client queries the MusicBrainz ws/2 JSON API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewClient(userAgent string) *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type searchResponse struct {
	Recordings []struct {
		Title        string `json:"title"`
		ArtistCredit []struct {
			Name       string `json:"name"`
			JoinPhrase string `json:"joinphrase"`
		} `json:"artist-credit"`
		Releases []struct {
			Title        string `json:"title"`
			Date         string `json:"date"`
			ReleaseGroup struct {
				PrimaryType string `json:"primary-type"`
			} `json:"release-group"`
		} `json:"releases"`
		Tags []struct {
			Name string `json:"name"`
		} `json:"tags"`
		ISRCs []string `json:"isrcs"`
	} `json:"recordings"`
}

func (client *Client) SearchRecordings(ctx context.Context, query string, limit int) ([]Recording, error) {
	endpoint := fmt.Sprintf("%s/recording?query=%s&limit=%s&fmt=json",
		client.baseURL, url.QueryEscape(query), strconv.Itoa(limit))

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("User-Agent", client.userAgent)

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata lookup returned %s", response.Status)
	}

	var decoded searchResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding metadata response: %w", err)
	}

	recordings := make([]Recording, 0, len(decoded.Recordings))
	for _, entry := range decoded.Recordings {
		recording := Recording{
			Title: entry.Title,
			ISRCs: entry.ISRCs,
		}
		for _, credit := range entry.ArtistCredit {
			recording.ArtistCredit += credit.Name + credit.JoinPhrase
		}
		for _, release := range entry.Releases {
			recording.Releases = append(recording.Releases, Release{
				Title:     release.Title,
				Date:      release.Date,
				GroupType: release.ReleaseGroup.PrimaryType,
			})
		}
		for _, tag := range entry.Tags {
			recording.Tags = append(recording.Tags, tag.Name)
		}
		recordings = append(recordings, recording)
	}
	return recordings, nil
}
