package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/resolvarr/resolvarr/internal/capability"
	"github.com/resolvarr/resolvarr/internal/httpclient"
	"github.com/resolvarr/resolvarr/internal/probe"
)

func fastClient() *httpclient.Client {
	return httpclient.New(httpclient.Config{
		Timeout:          2 * time.Second,
		RetryAttempts:    0,
		CircuitThreshold: 100,
		CircuitTimeout:   time.Minute,
	})
}

// probeServer returns an httptest server whose /hlsv2/probe endpoint
// serves the given result and records the last probed media URL.
func probeServer(t *testing.T, result probe.Result) (*httptest.Server, *string) {
	t.Helper()
	var lastMediaURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/hlsv2/probe") {
			http.NotFound(w, r)
			return
		}
		lastMediaURL = r.URL.Query().Get("mediaURL")
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			t.Errorf("encode probe result: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &lastMediaURL
}

func compatibleResult() probe.Result {
	return probe.Result{
		Format: probe.Format{Name: "mov,mp4,m4a,3gp", Duration: 7200},
		Streams: []probe.Stream{
			{Track: probe.TrackVideo, Codec: "h264"},
			{Track: probe.TrackAudio, Codec: "aac", Channels: 2},
		},
	}
}

func TestCheckCompatibility_Compatible(t *testing.T) {
	srv, lastMediaURL := probeServer(t, compatibleResult())

	r := New(srv.URL).WithPlatform(capability.PlatformWeb).WithHTTPClient(fastClient())

	result := r.CheckCompatibility(context.Background(), "http://media.example.com/movie.mp4")
	if !result.Compatible {
		t.Fatalf("expected compatible, got reason %q", result.Reason)
	}
	if result.Reason != "" {
		t.Errorf("expected empty reason, got %q", result.Reason)
	}
	if *lastMediaURL != "http://media.example.com/movie.mp4" {
		t.Errorf("probe received mediaURL %q", *lastMediaURL)
	}
}

func TestCheckCompatibility_UnsupportedFormat(t *testing.T) {
	srv, _ := probeServer(t, probe.Result{
		Format: probe.Format{Name: "matroska,webm"},
		Streams: []probe.Stream{
			{Track: probe.TrackVideo, Codec: "h264"},
		},
	})

	r := New(srv.URL).WithPlatform(capability.PlatformIOS).WithHTTPClient(fastClient())

	result := r.CheckCompatibility(context.Background(), "http://x/file.mkv")
	if result.Compatible {
		t.Fatal("expected incompatible")
	}
	if !strings.Contains(result.Reason, "container format") {
		t.Errorf("unexpected reason %q", result.Reason)
	}
}

// A long server-reported format list is accepted when any supported
// container token appears as a substring.
func TestCheckCompatibility_FormatSubstringMatch(t *testing.T) {
	srv, _ := probeServer(t, probe.Result{
		Format: probe.Format{Name: "matroska,webm"},
		Streams: []probe.Stream{
			{Track: probe.TrackVideo, Codec: "vp9"},
			{Track: probe.TrackAudio, Codec: "opus", Channels: 2},
		},
	})

	r := New(srv.URL).WithPlatform(capability.PlatformWeb).WithHTTPClient(fastClient())

	result := r.CheckCompatibility(context.Background(), "http://x/file.webm")
	if !result.Compatible {
		t.Fatalf("expected compatible, got reason %q", result.Reason)
	}
}

// Probed codecs are matched through alias normalization: a server that
// reports "hev1" must match a capability list that says "hevc".
func TestCheckCompatibility_CodecAliases(t *testing.T) {
	srv, _ := probeServer(t, probe.Result{
		Format: probe.Format{Name: "mov,mp4,m4a,3gp"},
		Streams: []probe.Stream{
			{Track: probe.TrackVideo, Codec: "hev1"},
			{Track: probe.TrackAudio, Codec: "mp4a", Channels: 2},
		},
	})

	r := New(srv.URL).WithHTTPClient(fastClient())
	if err := r.SetCapabilities(capability.MediaCapabilities{
		VideoCodecs:      []string{"hevc"},
		AudioCodecs:      []string{"aac"},
		MaxAudioChannels: 2,
		Formats:          []string{"mp4"},
	}); err != nil {
		t.Fatalf("SetCapabilities: %v", err)
	}

	result := r.CheckCompatibility(context.Background(), "http://x/file.mp4")
	if !result.Compatible {
		t.Fatalf("expected alias match, got reason %q", result.Reason)
	}
}

func TestCheckCompatibility_UnsupportedVideoCodec(t *testing.T) {
	srv, _ := probeServer(t, probe.Result{
		Format: probe.Format{Name: "mov,mp4,m4a,3gp"},
		Streams: []probe.Stream{
			{Track: probe.TrackVideo, Codec: "hevc"},
			{Track: probe.TrackAudio, Codec: "aac", Channels: 2},
		},
	})

	r := New(srv.URL).WithPlatform(capability.PlatformWeb).WithHTTPClient(fastClient())

	result := r.CheckCompatibility(context.Background(), "http://x/file.mp4")
	if result.Compatible {
		t.Fatal("expected incompatible")
	}
	if !strings.Contains(result.Reason, "video codec") || !strings.Contains(result.Reason, "hevc") {
		t.Errorf("unexpected reason %q", result.Reason)
	}
}

func TestCheckCompatibility_ChannelCountExceeded(t *testing.T) {
	srv, _ := probeServer(t, probe.Result{
		Format: probe.Format{Name: "mov,mp4,m4a,3gp"},
		Streams: []probe.Stream{
			{Track: probe.TrackVideo, Codec: "h264"},
			{Track: probe.TrackAudio, Codec: "aac", Channels: 6},
		},
	})

	// Web profile allows at most 2 audio channels.
	r := New(srv.URL).WithPlatform(capability.PlatformWeb).WithHTTPClient(fastClient())

	result := r.CheckCompatibility(context.Background(), "http://x/file.mp4")
	if result.Compatible {
		t.Fatal("expected incompatible")
	}
	if !strings.Contains(result.Reason, "channel count") {
		t.Errorf("unexpected reason %q", result.Reason)
	}
}

// Evaluation is ordered: the container check runs before any stream
// check, and streams are checked in the order the probe reported them.
func TestCheckCompatibility_FirstFailureWins(t *testing.T) {
	srv, _ := probeServer(t, probe.Result{
		Format: probe.Format{Name: "avi"},
		Streams: []probe.Stream{
			{Track: probe.TrackVideo, Codec: "mpeg4"},
			{Track: probe.TrackAudio, Codec: "dts", Channels: 6},
		},
	})

	r := New(srv.URL).WithPlatform(capability.PlatformWeb).WithHTTPClient(fastClient())

	result := r.CheckCompatibility(context.Background(), "http://x/file.avi")
	if result.Compatible {
		t.Fatal("expected incompatible")
	}
	if !strings.Contains(result.Reason, "container format") {
		t.Errorf("expected container failure first, got %q", result.Reason)
	}
}

func TestCheckCompatibility_SubtitleStreamsIgnored(t *testing.T) {
	res := compatibleResult()
	res.Streams = append(res.Streams, probe.Stream{Track: probe.TrackSubtitle, Codec: "subrip"})
	srv, _ := probeServer(t, res)

	r := New(srv.URL).WithPlatform(capability.PlatformWeb).WithHTTPClient(fastClient())

	result := r.CheckCompatibility(context.Background(), "http://x/file.mp4")
	if !result.Compatible {
		t.Fatalf("subtitle stream should not fail compatibility, got %q", result.Reason)
	}
}

func TestCheckCompatibility_ProbeRequestFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := New(srv.URL).WithHTTPClient(fastClient())

	result := r.CheckCompatibility(context.Background(), "http://x/file.mp4")
	if result.Compatible {
		t.Fatal("expected incompatible")
	}
	if result.Reason != ReasonProbeRequestFailed {
		t.Errorf("expected %q, got %q", ReasonProbeRequestFailed, result.Reason)
	}
}

func TestCheckCompatibility_ProbeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	r := New(srv.URL).WithHTTPClient(fastClient())

	result := r.CheckCompatibility(context.Background(), "http://x/file.mp4")
	if result.Compatible {
		t.Fatal("expected incompatible")
	}
	if result.Reason != ReasonProbeRequestFailed {
		t.Errorf("expected %q, got %q", ReasonProbeRequestFailed, result.Reason)
	}
}

func TestCheckCompatibility_ProbeParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	r := New(srv.URL).WithHTTPClient(fastClient())

	result := r.CheckCompatibility(context.Background(), "http://x/file.mp4")
	if result.Compatible {
		t.Fatal("expected incompatible")
	}
	if result.Reason != ReasonProbeParseError {
		t.Errorf("expected %q, got %q", ReasonProbeParseError, result.Reason)
	}
}

func TestStreamURL(t *testing.T) {
	r := New("http://example.com:11470")

	got := r.StreamURL("abcdef0123456789abcdef0123456789abcdef01", 3)
	want := "http://example.com:11470/abcdef0123456789abcdef0123456789abcdef01/3"
	if got != want {
		t.Errorf("StreamURL = %q, want %q", got, want)
	}
}

func TestStreamURL_EscapesInfoHash(t *testing.T) {
	r := New("http://example.com:11470")

	got := r.StreamURL("hash/with?chars", 0)
	if strings.Contains(got, "hash/with?chars") {
		t.Errorf("info hash not escaped: %q", got)
	}
	if !strings.HasSuffix(got, "/0") {
		t.Errorf("file index missing: %q", got)
	}
}

func TestStreamURL_DefaultFileIndex(t *testing.T) {
	r := New("http://example.com:11470")

	got := r.StreamURL("deadbeef", DefaultFileIndex)
	if !strings.HasSuffix(got, "/deadbeef/-1") {
		t.Errorf("StreamURL = %q", got)
	}
}

func TestGetStream_LocalServerSkipsProbe(t *testing.T) {
	// No server is listening; a probe attempt would fail and force
	// transcoding, so success proves the probe was skipped.
	r := New("http://127.0.0.1:11470").WithHTTPClient(fastClient())

	result := r.GetStream(context.Background(), "deadbeef", 0)
	if result.NeedsTranscoding {
		t.Errorf("local server must not transcode, reason %q", result.Reason)
	}
	if result.ServerType != ServerTypeLocal {
		t.Errorf("ServerType = %q, want %q", result.ServerType, ServerTypeLocal)
	}
	if result.URL != "http://127.0.0.1:11470/deadbeef/0" {
		t.Errorf("URL = %q", result.URL)
	}
}

func TestGetStream_LocalhostHostname(t *testing.T) {
	r := New("localhost:11470").WithHTTPClient(fastClient())

	result := r.GetStream(context.Background(), "deadbeef", 0)
	if result.ServerType != ServerTypeLocal {
		t.Errorf("ServerType = %q, want local", result.ServerType)
	}
	if result.URL != "http://localhost:11470/deadbeef/0" {
		t.Errorf("URL = %q", result.URL)
	}
}

func TestGetStream_RemoteCompatible(t *testing.T) {
	srv, _ := probeServer(t, compatibleResult())

	r := New(srv.URL).WithPlatform(capability.PlatformWeb).WithHTTPClient(fastClient())

	result := r.GetStream(context.Background(), "deadbeef", 2)
	if result.NeedsTranscoding {
		t.Fatalf("expected direct play, reason %q", result.Reason)
	}
	if result.ServerType != ServerTypeRemote {
		t.Errorf("ServerType = %q, want remote", result.ServerType)
	}
	if result.URL != srv.URL+"/deadbeef/2" {
		t.Errorf("URL = %q", result.URL)
	}
}

func TestGetStream_RemoteIncompatibleFallsBackToHLS(t *testing.T) {
	srv, _ := probeServer(t, probe.Result{
		Format: probe.Format{Name: "matroska,webm"},
		Streams: []probe.Stream{
			{Track: probe.TrackVideo, Codec: "hevc"},
			{Track: probe.TrackAudio, Codec: "eac3", Channels: 8},
		},
	})

	r := New(srv.URL).WithPlatform(capability.PlatformIOS).WithHTTPClient(fastClient())

	result := r.GetStream(context.Background(), "deadbeef", 0)
	if !result.NeedsTranscoding {
		t.Fatal("expected transcoding fallback")
	}
	if result.Reason == "" {
		t.Error("expected a reason for transcoding")
	}
	if !strings.Contains(result.URL, "/hlsv2/") || !strings.Contains(result.URL, "/master.m3u8") {
		t.Errorf("expected HLS URL, got %q", result.URL)
	}

	u, err := url.Parse(result.URL)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := u.Query().Get("mediaURL"); got != srv.URL+"/deadbeef/0" {
		t.Errorf("embedded mediaURL = %q", got)
	}
}

// Scenario: a dead remote server. The probe fails, so resolution degrades
// conservatively to a transcoding URL with the request-failure reason.
func TestGetStream_RemoteProbeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	r := New(srv.URL).WithHTTPClient(fastClient())

	result := r.GetStream(context.Background(), "deadbeef", 0)
	if !result.NeedsTranscoding {
		t.Fatal("expected transcoding fallback")
	}
	if result.Reason != ReasonProbeRequestFailed {
		t.Errorf("Reason = %q, want %q", result.Reason, ReasonProbeRequestFailed)
	}
	if result.ServerType != ServerTypeRemote {
		t.Errorf("ServerType = %q, want remote", result.ServerType)
	}
}

func TestGetStreamingURL_LocalPassthrough(t *testing.T) {
	r := New("http://localhost:11470").WithHTTPClient(fastClient())

	result := r.GetStreamingURL(context.Background(), "http://localhost:11470/deadbeef/0")
	if result.NeedsTranscoding {
		t.Error("local server must not transcode")
	}
	if result.URL != "http://localhost:11470/deadbeef/0" {
		t.Errorf("URL = %q", result.URL)
	}
}

func TestGenerateHLSURL(t *testing.T) {
	r := New("http://example.com:11470").WithPlatform(capability.PlatformIOS)

	mediaURL := "http://example.com:11470/deadbeef/0"
	hlsURL := r.GenerateHLSURL(mediaURL)

	u, err := url.Parse(hlsURL)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	parts := strings.Split(u.Path, "/")
	if len(parts) != 4 || parts[1] != "hlsv2" || parts[3] != "master.m3u8" {
		t.Fatalf("unexpected path %q", u.Path)
	}
	if len(parts[2]) != 32 || strings.Contains(parts[2], "-") {
		t.Errorf("session id %q should be 32 hex chars without dashes", parts[2])
	}

	q := u.Query()
	if q.Get("mediaURL") != mediaURL {
		t.Errorf("mediaURL = %q", q.Get("mediaURL"))
	}
	if got := q["videoCodecs"]; len(got) == 0 {
		t.Error("missing videoCodecs parameters")
	}
	if got := q["audioCodecs"]; len(got) == 0 {
		t.Error("missing audioCodecs parameters")
	}
	// Non-web platforms transcode up to 8 channels.
	if q.Get("maxAudioChannels") != "8" {
		t.Errorf("maxAudioChannels = %q, want 8", q.Get("maxAudioChannels"))
	}
}

func TestGenerateHLSURL_WebChannelCap(t *testing.T) {
	r := New("http://example.com:11470").WithPlatform(capability.PlatformWeb)

	u, err := url.Parse(r.GenerateHLSURL("http://x/file.mkv"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := u.Query().Get("maxAudioChannels"); got != "2" {
		t.Errorf("maxAudioChannels = %q, want 2", got)
	}
}

func TestGenerateHLSURL_UniqueSessions(t *testing.T) {
	r := New("http://example.com:11470")

	a := r.GenerateHLSURL("http://x/file.mkv")
	b := r.GenerateHLSURL("http://x/file.mkv")
	if a == b {
		t.Error("expected distinct session ids per call")
	}
}

func TestGetStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/deadbeef/0/stats.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"downloadSpeed": 1048576, "peers": 12, "streamProgress": 0.42}`))
	}))
	defer srv.Close()

	r := New(srv.URL).WithHTTPClient(fastClient())

	stats := r.GetStats(context.Background(), "deadbeef", 0)
	if stats == nil {
		t.Fatal("expected stats")
	}
	if stats["peers"] != float64(12) {
		t.Errorf("peers = %v", stats["peers"])
	}
}

func TestGetStats_FailureReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := New(srv.URL).WithHTTPClient(fastClient())

	if stats := r.GetStats(context.Background(), "deadbeef", 0); stats != nil {
		t.Errorf("expected nil stats, got %v", stats)
	}
}

func TestGetStats_ParseFailureReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("garbage"))
	}))
	defer srv.Close()

	r := New(srv.URL).WithHTTPClient(fastClient())

	if stats := r.GetStats(context.Background(), "deadbeef", 0); stats != nil {
		t.Errorf("expected nil stats, got %v", stats)
	}
}

func TestHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD, got %s", r.Method)
		}
	}))
	defer srv.Close()

	r := New(srv.URL).WithHTTPClient(fastClient())
	if !r.Healthy(context.Background()) {
		t.Error("expected healthy")
	}
}

func TestHealthy_Down(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	r := New(srv.URL).WithHTTPClient(fastClient())
	if r.Healthy(context.Background()) {
		t.Error("expected unhealthy")
	}
}

func TestSetCapabilities_Validation(t *testing.T) {
	r := New("http://example.com")

	err := r.SetCapabilities(capability.MediaCapabilities{
		VideoCodecs:      []string{"h264"},
		AudioCodecs:      []string{"aac"},
		MaxAudioChannels: 0,
		Formats:          []string{"mp4"},
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestSetCapabilities_CopiesInput(t *testing.T) {
	r := New("http://example.com")

	caps := capability.MediaCapabilities{
		VideoCodecs:      []string{"h264"},
		AudioCodecs:      []string{"aac"},
		MaxAudioChannels: 2,
		Formats:          []string{"mp4"},
	}
	if err := r.SetCapabilities(caps); err != nil {
		t.Fatalf("SetCapabilities: %v", err)
	}

	caps.VideoCodecs[0] = "mutated"
	if got := r.Capabilities().VideoCodecs[0]; got != "h264" {
		t.Errorf("capabilities aliased caller slice: %q", got)
	}
}

func TestWithPlatform_ResetsProfiles(t *testing.T) {
	r := New("http://example.com").WithPlatform(capability.PlatformAndroid)

	if r.Platform() != capability.PlatformAndroid {
		t.Errorf("Platform = %q", r.Platform())
	}
	caps := r.Capabilities()
	if caps.MaxAudioChannels != 8 {
		t.Errorf("android MaxAudioChannels = %d, want 8", caps.MaxAudioChannels)
	}
}
