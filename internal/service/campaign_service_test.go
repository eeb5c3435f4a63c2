package service_test

import (
	"context"
	"errors"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/muxo-dispatch/internal/errors"
	"github.com/unclebandit/muxo-dispatch/internal/model"
	"github.com/unclebandit/muxo-dispatch/internal/repository"
	"github.com/unclebandit/muxo-dispatch/internal/service"
)

func TestCreateCampaign(t *testing.T) {
	h := newHarness(t)
	h.list("vips", 3)

	c, err := h.svc.CreateCampaign("Launch", "vips", "Hi {{ first_name }}", model.Window{}, 2)
	require.NoError(t, err)

	assert.NotZero(t, c.ID)
	assert.Equal(t, "Launch", c.Name)
	assert.Equal(t, model.StateIdle, c.State)
	assert.Equal(t, 3, c.Target)
	assert.Equal(t, 0, c.SentCount)
	assert.Equal(t, 2.0, c.Rate)

	stored, err := h.campaigns.GetByID(c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Name, stored.Name)

	p, err := h.svc.GetProgress(c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateIdle, p.State)
	assert.Equal(t, 3, p.Target)
}

func TestCreateCampaignDefaultsNameToList(t *testing.T) {
	h := newHarness(t)
	h.list("vips", 1)

	c, err := h.svc.CreateCampaign("  ", "vips", "x", model.Window{}, 1)
	require.NoError(t, err)
	assert.Equal(t, "vips", c.Name)
}

func TestCreateCampaignEmptyList(t *testing.T) {
	h := newHarness(t)
	h.lists.Put("empty", nil)

	for _, name := range []string{"missing", "empty"} {
		_, err := h.svc.CreateCampaign("", name, "x", model.Window{}, 1)
		var empty *appErrors.EmptyListError
		assert.True(t, errors.As(err, &empty), name)
	}

	_, total, err := h.campaigns.ListCampaigns(0, 10, "")
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestCreateCampaignInvalidWindow(t *testing.T) {
	h := newHarness(t)
	h.list("vips", 1)
	start := time.Now().Add(2 * time.Hour)
	end := time.Now().Add(time.Hour)

	_, err := h.svc.CreateCampaign("", "vips", "x", model.Window{Start: &start, End: &end}, 1)
	var invalid *appErrors.InvalidWindowError
	assert.True(t, errors.As(err, &invalid))

	// equal bounds and single-sided windows are fine
	_, err = h.svc.CreateCampaign("", "vips", "x", model.Window{Start: &start, End: &start}, 1)
	assert.NoError(t, err)
	_, err = h.svc.CreateCampaign("", "vips", "x", model.Window{End: &end}, 1)
	assert.NoError(t, err)
}

func TestCreateCampaignClampsRate(t *testing.T) {
	h := newHarness(t)
	h.list("vips", 1)

	for _, rate := range []float64{0, -1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		c, err := h.svc.CreateCampaign("", "vips", "x", model.Window{}, rate)
		require.NoError(t, err)
		assert.Equal(t, 1.0, c.Rate, "rate %v", rate)
	}

	c, err := h.svc.CreateCampaign("", "vips", "x", model.Window{}, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0.5, c.Rate)
}

func TestCampaignSnapshotIsolation(t *testing.T) {
	h := newHarness(t)
	contacts := h.list("vips", 2)
	c, err := h.svc.CreateCampaign("", "vips", "{{ first_name }}", model.Window{}, 50)
	require.NoError(t, err)

	// the list changes after creation
	h.lists.Put("vips", append(contacts, model.NewContact("19999", "Late", "", nil)))
	contacts[0].FirstName = "Mutated"

	require.NoError(t, h.svc.StartCampaign(c.ID))
	snap := h.wait(t, c.ID, 2*time.Second)
	assert.Equal(t, 2, snap.Target)
	assert.Equal(t, 2, snap.SentCount)

	calls := h.transport.sent()
	require.Len(t, calls, 2)
	assert.Equal(t, "User0", calls[0].text)
	assert.Equal(t, "User1", calls[1].text)
}

func TestPreview(t *testing.T) {
	h := newHarness(t)
	h.list("vips", 5)

	rendered, err := h.svc.Preview("vips", "Hi {{ first_name }}{{ nickname }}", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hi User0", "Hi User1", "Hi User2"}, rendered)

	rendered, err = h.svc.Preview("vips", "{{ msisdn }}", 10)
	require.NoError(t, err)
	assert.Len(t, rendered, 5)

	_, err = h.svc.Preview("missing", "x", 1)
	var empty *appErrors.EmptyListError
	assert.True(t, errors.As(err, &empty))
}

func TestPreviewMatchesSend(t *testing.T) {
	h := newHarness(t)
	h.list("vips", 2)
	template := "Hello {{first_name}}, reply STOP to {{ msisdn }}"

	preview, err := h.svc.Preview("vips", template, 2)
	require.NoError(t, err)

	c, err := h.svc.CreateCampaign("", "vips", template, model.Window{}, 50)
	require.NoError(t, err)
	require.NoError(t, h.svc.StartCampaign(c.ID))
	h.wait(t, c.ID, 2*time.Second)

	calls := h.transport.sent()
	require.Len(t, calls, 2)
	assert.Equal(t, preview[0], calls[0].text)
	assert.Equal(t, preview[1], calls[1].text)
}

func TestGetCampaignDetails(t *testing.T) {
	h := newHarness(t)
	h.transport.fail = map[string]bool{"15550": true}
	c := h.campaign(t, 2, 50, model.Window{})

	require.NoError(t, h.svc.StartCampaign(c.ID))
	h.wait(t, c.ID, 2*time.Second)

	details, err := h.svc.GetCampaignDetails(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateCompleted, details.State)
	assert.Equal(t, 2, details.Progress.SentCount)
	assert.Equal(t, 1, details.Progress.FailedCount)
	assert.Equal(t, map[string]int{"total": 2, model.MessageStatusSent: 1, model.MessageStatusFailed: 1}, details.Stats)

	_, err = h.svc.GetCampaignDetails(context.Background(), 999)
	var notFound *appErrors.ErrCampaignNotFound
	assert.True(t, errors.As(err, &notFound))
}

// --- Pagination against a stub repository ---

type stubCampaignRepo struct {
	repository.CampaignRepositoryInterface
	campaigns []*model.Campaign
}

func (m *stubCampaignRepo) ListCampaigns(offset, limit int, state string) ([]*model.Campaign, int, error) {
	var filtered []*model.Campaign
	for _, c := range m.campaigns {
		if state != "" && string(c.State) != state {
			continue
		}
		filtered = append(filtered, c)
	}
	total := len(filtered)

	if offset > total {
		return []*model.Campaign{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return filtered[offset:end], total, nil
}

func TestListCampaignsPagination(t *testing.T) {
	campaigns := []*model.Campaign{}
	for i := 1; i <= 25; i++ {
		state := model.StateIdle
		if i%5 == 0 {
			state = model.StateCompleted
		}
		campaigns = append(campaigns, &model.Campaign{ID: i, Name: "Campaign " + strconv.Itoa(i), State: state})
	}
	svc := &service.CampaignService{CampaignRepo: &stubCampaignRepo{campaigns: campaigns}}

	got, pagination, err := svc.ListCampaigns(2, 10, "")
	require.NoError(t, err)
	assert.Len(t, got, 10)
	assert.Equal(t, 11, got[0].ID)
	assert.Equal(t, map[string]int{"page": 2, "page_size": 10, "total_count": 25, "total_pages": 3}, pagination)

	got, pagination, err = svc.ListCampaigns(3, 10, "")
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.Equal(t, 3, pagination["total_pages"])

	got, pagination, err = svc.ListCampaigns(1, 10, string(model.StateCompleted))
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.Equal(t, 5, pagination["total_count"])

	_, pagination, err = svc.ListCampaigns(0, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 1, pagination["page"])
	assert.Equal(t, 20, pagination["page_size"])

	_, pagination, err = svc.ListCampaigns(1, 1000, "")
	require.NoError(t, err)
	assert.Equal(t, 100, pagination["page_size"])
}
