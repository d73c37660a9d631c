package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type fakeUploadAPI struct {
	uploaded  []string
	destroyed []string
	uploadErr error
	apiError  string
}

func (f *fakeUploadAPI) Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	body, _ := io.ReadAll(file.(io.Reader))
	f.uploaded = append(f.uploaded, string(body))
	res := &uploader.UploadResult{
		PublicID:  params.Folder + "/" + params.PublicID,
		SecureURL: "https://res.cloudinary.com/demo/image/upload/" + params.Folder + "/" + params.PublicID + ".jpg",
	}
	res.Error.Message = f.apiError
	return res, nil
}

func (f *fakeUploadAPI) Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error) {
	f.destroyed = append(f.destroyed, params.PublicID)
	return &uploader.DestroyResult{Result: "ok"}, nil
}

func TestCloudinary_StoreReturnsSecureURL(t *testing.T) {
	api := &fakeUploadAPI{}
	c := &Cloudinary{api: api, folder: "rooms"}
	obj, err := c.Store(context.Background(), bytes.NewReader([]byte("img")), "room photo.jpg")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if !strings.HasPrefix(obj.Ref, "https://") || !strings.HasPrefix(obj.Key, "rooms/room_photo_") {
		t.Fatalf("unexpected object %+v", obj)
	}
	if len(api.uploaded) != 1 || api.uploaded[0] != "img" {
		t.Fatalf("payload not forwarded: %v", api.uploaded)
	}
	if err := c.Remove(context.Background(), obj.Key); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(api.destroyed) != 1 || api.destroyed[0] != obj.Key {
		t.Fatalf("destroy not called with key: %v", api.destroyed)
	}
}

func TestCloudinary_StoreErrors(t *testing.T) {
	transport := &Cloudinary{api: &fakeUploadAPI{uploadErr: errors.New("dial tcp: timeout")}}
	if _, err := transport.Store(context.Background(), bytes.NewReader([]byte("x")), "a.jpg"); err == nil {
		t.Fatalf("expected transport error")
	}
	rejected := &Cloudinary{api: &fakeUploadAPI{apiError: "Invalid image file"}}
	_, err := rejected.Store(context.Background(), bytes.NewReader([]byte("x")), "a.jpg")
	if err == nil || !strings.Contains(err.Error(), "Invalid image file") {
		t.Fatalf("expected api error message, got %v", err)
	}
}
