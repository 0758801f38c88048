package cards

import (
	"fmt"
	"image"
	"io"
	"net/http"

	"github.com/disintegration/imageorient"
	"github.com/nfnt/resize"
	"github.com/rs/zerolog/log"
)

// Download fetches raw bytes from a URL. One attempt, no retries.
func Download(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, Fetchf(FetchDownload, "download "+url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, Fetchf(FetchStatus, "download "+url, fmt.Errorf("status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Fetchf(FetchDownload, "download "+url, err)
	}
	return body, nil
}

// DownloadImage fetches and decodes an image, scaling it down so its longest
// edge is at most maxSz.
func DownloadImage(url string, maxSz float64) (image.Image, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, Fetchf(FetchDownload, "image "+url, err)
	}
	defer resp.Body.Close()

	img, _, err := imageorient.Decode(resp.Body)
	if err != nil {
		return nil, Fetchf(FetchParse, "image "+url, err)
	}

	r := img.Bounds()
	w := r.Dx()
	h := r.Dy()

	if float64(w) <= maxSz && float64(h) <= maxSz {
		return img, nil
	}

	if w > h {
		scale := maxSz / float64(w)
		w = int(float64(w) * scale)
		h = int(float64(h) * scale)
	} else {
		scale := maxSz / float64(h)
		w = int(float64(w) * scale)
		h = int(float64(h) * scale)
	}

	log.Debug().Msgf("resizing %s to %v, %v", url, w, h)
	return resize.Resize(uint(w), uint(h), img, resize.Lanczos3), nil
}
