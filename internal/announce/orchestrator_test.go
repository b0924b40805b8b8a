package announce

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/railsign/isl-announce-go/internal/domain"
	"github.com/railsign/isl-announce-go/internal/video"
)

type fakeTemplates struct {
	template     *domain.AnnouncementTemplate
	templateErr  error
	translations *domain.RouteTranslation
	routeErr     error
}

func (f *fakeTemplates) GetByCategory(_ context.Context, _ string) (*domain.AnnouncementTemplate, error) {
	return f.template, f.templateErr
}

func (f *fakeTemplates) GetRouteTranslations(_ context.Context, _ string) (*domain.RouteTranslation, error) {
	return f.translations, f.routeErr
}

type fakeRecords struct {
	created    *domain.Announcement
	createErr  error
	nextID     int64
	updatedID  int64
	updatedRef domain.AssetRef
	onCreate   func()
}

func (f *fakeRecords) Create(_ context.Context, a *domain.Announcement) (*domain.Announcement, error) {
	if f.onCreate != nil {
		f.onCreate()
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	created := *a
	created.ID = f.nextID
	f.created = &created
	return &created, nil
}

func (f *fakeRecords) UpdateVideoRef(_ context.Context, id int64, ref domain.AssetRef) error {
	f.updatedID = id
	f.updatedRef = ref
	return nil
}

type fakeVideos struct {
	result     *video.GenerateResult
	err        error
	text       string
	onGenerate func()
}

func (f *fakeVideos) Generate(_ context.Context, text string, _ domain.Avatar, _ int) (*video.GenerateResult, error) {
	if f.onGenerate != nil {
		f.onGenerate()
	}
	f.text = text
	return f.result, f.err
}

func arrivalTemplate() *domain.AnnouncementTemplate {
	return &domain.AnnouncementTemplate{
		ID:       1,
		Category: "arriving",
		English:  "Train {train_number} {train_name} from {from_station} to {to_station} is arriving at platform {platform}",
		Hindi:    "ट्रेन {train_number} {train_name} {from_station} से {to_station} प्लेटफार्म {platform}",
	}
}

func arrivalRequest() Request {
	return Request{
		TrainNumber: "12951",
		TrainName:   "Rajdhani Express",
		FromStation: "Mumbai Central",
		ToStation:   "New Delhi",
		Platform:    3,
		Category:    "arriving",
		Avatar:      domain.AvatarMale,
		UserID:      1,
	}
}

func successVideo() *video.GenerateResult {
	return &video.GenerateResult{
		TempVideoID: "abc-123",
		PreviewRef:  domain.NewPreviewRef("abc-123"),
		Duration:    9.0,
		SignsUsed:   []string{"train", "1"},
	}
}

func TestGenerateSubstitutesPlaceholders(t *testing.T) {
	videos := &fakeVideos{result: successVideo()}
	o := NewOrchestrator(&fakeTemplates{template: arrivalTemplate()}, &fakeRecords{nextID: 10}, videos, zap.NewNop())

	result := o.Generate(context.Background(), arrivalRequest(), false)
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}

	want := "Train 12951 Rajdhani Express from Mumbai Central to New Delhi is arriving at platform 3"
	if result.TextEnglish != want {
		t.Errorf("english = %q, want %q", result.TextEnglish, want)
	}
	if videos.text != want {
		t.Errorf("video generated from %q, want english text", videos.text)
	}
	if result.PreviewRef != "/isl-video-generation/preview/abc-123" {
		t.Errorf("preview = %q", result.PreviewRef)
	}
	if result.AnnouncementID != nil {
		t.Error("persistRecord=false must not create a record")
	}
}

func TestGenerateUsesRouteTranslations(t *testing.T) {
	templates := &fakeTemplates{
		template: arrivalTemplate(),
		translations: &domain.RouteTranslation{
			TrainNumber:   "12951",
			TrainNameHi:   "राजधानी एक्सप्रेस",
			FromStationHi: "मुंबई सेंट्रल",
			ToStationHi:   "नई दिल्ली",
		},
	}
	o := NewOrchestrator(templates, &fakeRecords{}, &fakeVideos{result: successVideo()}, zap.NewNop())

	result := o.Generate(context.Background(), arrivalRequest(), false)
	if result.TextHindi == nil {
		t.Fatal("expected hindi text")
	}
	for _, fragment := range []string{"12951", "राजधानी एक्सप्रेस", "मुंबई सेंट्रल", "नई दिल्ली", "3"} {
		if !strings.Contains(*result.TextHindi, fragment) {
			t.Errorf("hindi text missing %q: %q", fragment, *result.TextHindi)
		}
	}
	if result.TextMarathi != nil || result.TextGujarati != nil {
		t.Error("languages without template text must stay nil")
	}
}

func TestGenerateWithoutTranslationsSkipsNonEnglish(t *testing.T) {
	o := NewOrchestrator(&fakeTemplates{template: arrivalTemplate()}, &fakeRecords{}, &fakeVideos{result: successVideo()}, zap.NewNop())

	result := o.Generate(context.Background(), arrivalRequest(), false)
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	if result.TextHindi != nil {
		t.Error("hindi must stay nil without route translations")
	}
}

func TestGenerateUnknownPlaceholderPassesThrough(t *testing.T) {
	tmpl := arrivalTemplate()
	tmpl.English = "Train {train_number} via {junction_name}"
	o := NewOrchestrator(&fakeTemplates{template: tmpl}, &fakeRecords{}, &fakeVideos{result: successVideo()}, zap.NewNop())

	result := o.Generate(context.Background(), arrivalRequest(), false)
	if want := "Train 12951 via {junction_name}"; result.TextEnglish != want {
		t.Errorf("english = %q, want %q", result.TextEnglish, want)
	}
}

func TestGenerateMissingTemplateFails(t *testing.T) {
	o := NewOrchestrator(&fakeTemplates{}, &fakeRecords{}, &fakeVideos{}, zap.NewNop())

	result := o.Generate(context.Background(), arrivalRequest(), true)
	if result.Success {
		t.Error("missing template must fail")
	}
	if !strings.Contains(result.Error, "no template found") {
		t.Errorf("error = %q", result.Error)
	}
}

func TestGeneratePersistsRecord(t *testing.T) {
	records := &fakeRecords{nextID: 77}
	o := NewOrchestrator(&fakeTemplates{template: arrivalTemplate()}, records, &fakeVideos{result: successVideo()}, zap.NewNop())

	result := o.Generate(context.Background(), arrivalRequest(), true)
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	if result.AnnouncementID == nil || *result.AnnouncementID != 77 {
		t.Fatalf("announcement id = %v, want 77", result.AnnouncementID)
	}
	if records.created == nil || records.created.Category != "arriving" {
		t.Error("record not created with request category")
	}
	if records.updatedID != 77 {
		t.Errorf("video ref attached to id %d, want 77", records.updatedID)
	}
	if records.updatedRef.Kind != domain.AssetPreview {
		t.Errorf("video ref kind = %s, want preview", records.updatedRef.Kind)
	}
}

func TestGeneratePartialWhenVideoFails(t *testing.T) {
	records := &fakeRecords{nextID: 5}
	videos := &fakeVideos{err: errors.New("no clips found for any signs")}
	o := NewOrchestrator(&fakeTemplates{template: arrivalTemplate()}, records, videos, zap.NewNop())

	result := o.Generate(context.Background(), arrivalRequest(), true)
	if !result.Success {
		t.Error("persisted record with failed video must stay a partial success")
	}
	if result.AnnouncementID == nil {
		t.Error("announcement id must survive a video failure")
	}
	if !strings.Contains(result.Error, "video generation failed") {
		t.Errorf("error = %q", result.Error)
	}
	if result.PreviewRef != "" {
		t.Errorf("preview = %q, want empty", result.PreviewRef)
	}
}

func TestGenerateFiresVideoStartBetweenPersistAndGeneration(t *testing.T) {
	var order []string
	records := &fakeRecords{nextID: 9, onCreate: func() { order = append(order, "record") }}
	videos := &fakeVideos{result: successVideo(), onGenerate: func() { order = append(order, "video") }}
	o := NewOrchestrator(&fakeTemplates{template: arrivalTemplate()}, records, videos, zap.NewNop())

	req := arrivalRequest()
	req.OnVideoStart = func() { order = append(order, "start") }

	if result := o.Generate(context.Background(), req, true); !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	want := []string{"record", "start", "video"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestGenerateSkipsVideoStartWhenTemplateMissing(t *testing.T) {
	fired := false
	o := NewOrchestrator(&fakeTemplates{}, &fakeRecords{}, &fakeVideos{}, zap.NewNop())

	req := arrivalRequest()
	req.OnVideoStart = func() { fired = true }

	if result := o.Generate(context.Background(), req, false); result.Success {
		t.Fatal("missing template must fail")
	}
	if fired {
		t.Error("callback must not fire when no announcement text was produced")
	}
}

func TestGenerateRecordCreateFailureIsHard(t *testing.T) {
	records := &fakeRecords{createErr: errors.New("db down")}
	o := NewOrchestrator(&fakeTemplates{template: arrivalTemplate()}, records, &fakeVideos{result: successVideo()}, zap.NewNop())

	result := o.Generate(context.Background(), arrivalRequest(), true)
	if result.Success {
		t.Error("record creation failure must not be a partial success")
	}
	if !strings.Contains(result.Error, "failed to create announcement record") {
		t.Errorf("error = %q", result.Error)
	}
}
