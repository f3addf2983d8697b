package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"storefront/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cardsJSON = `{"cards":[
	{"nmID":101,"title":"Платье льняное","description":"Лён","photos":[{"big":"https://img/101-1.jpg"},{"big":"https://img/101-2.jpg"}],
	 "sizes":[{"techSize":"S","skus":["1","2"],"price":4990,"oldPrice":6990},{"techSize":"M","skus":["3"]}],
	 "characteristics":[{"name":"Цвет","value":["белый","бежевый"]},{"name":"Состав","value":["лён"]}],
	 "subjectName":"Платья"},
	{"nmID":999,"title":"unrelated"}
]}`

func TestCardsMapsFieldsAndFiltersUnrequested(t *testing.T) {
	var body listRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, cardsPath, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(cardsJSON))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", nil)
	cards, err := c.Cards(context.Background(), []int64{101, 101, 0})
	require.NoError(t, err)

	assert.Equal(t, []int64{101}, body.NmIDs)
	assert.Equal(t, 100, body.Settings.Cursor.Limit)
	require.Len(t, cards, 1)

	card := cards[101]
	assert.Equal(t, "Платье льняное", card.Title)
	assert.Equal(t, []string{"https://img/101-1.jpg", "https://img/101-2.jpg"}, card.Images)
	assert.Equal(t, 4990.0, card.Price)
	require.NotNil(t, card.OldPrice)
	assert.Equal(t, 6990.0, *card.OldPrice)
	assert.Equal(t, []string{"S", "M"}, card.Sizes)
	assert.Equal(t, 3, card.Availability)
	assert.Equal(t, []string{"белый", "бежевый"}, card.Colors)
	assert.Equal(t, []string{"Платья"}, card.Categories)
	assert.Equal(t, "https://www.wildberries.ru/catalog/101/detail.aspx", card.Link())
}

func TestCardsSkipsCallWhenNothingRequested(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	cards, err := New(srv.URL, "", nil).Cards(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, cards)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestCardsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "bad", nil).Cards(context.Background(), []int64{1})
	require.Error(t, err)
	assert.True(t, domain.IsUpstream(err))
}

func TestSearchSendsTextFilter(t *testing.T) {
	var body listRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(cardsJSON))
	}))
	defer srv.Close()

	cards, err := New(srv.URL, "t", nil).Search(context.Background(), "платье", 10)
	require.NoError(t, err)
	assert.Len(t, cards, 2)
	require.NotNil(t, body.Settings.Filter)
	assert.Equal(t, "платье", body.Settings.Filter.TextSearch)
	assert.Equal(t, 10, body.Settings.Cursor.Limit)
	assert.Empty(t, body.NmIDs)
}

func TestCharacteristicScalarValue(t *testing.T) {
	card := toCard(apiCard{NmID: 1, Characteristics: []apiCharacteristic{{Name: "цвет", Value: json.RawMessage(`"синий"`)}}})
	assert.Equal(t, []string{"синий"}, card.Colors)
	assert.Nil(t, card.OldPrice)
}
