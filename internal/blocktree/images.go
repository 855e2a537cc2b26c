package blocktree

import (
	"fmt"

	"reports/internal/domain"
)

// AddImage appends an empty image slot to the grid and returns its id.
func (t *Tree) AddImage(id string) (*Tree, string, error) {
	img := domain.NewImage()
	nt, err := t.editImages("add image", id, func(images []domain.Image) ([]domain.Image, error) {
		return append(images, img), nil
	})
	if err != nil {
		return t, "", err
	}
	return nt, img.ID, nil
}

// RemoveImage deletes one image. A grid always keeps at least one image.
func (t *Tree) RemoveImage(id, imageID string) (*Tree, error) {
	return t.editImages("remove image", id, func(images []domain.Image) ([]domain.Image, error) {
		i := indexOfImage(images, imageID)
		if i < 0 {
			return nil, domain.Addressing("remove image", fmt.Errorf("%w: %s", domain.ErrImageNotFound, imageID))
		}
		if len(images) == 1 {
			return nil, domain.ErrLastImage
		}
		return append(images[:i], images[i+1:]...), nil
	})
}

// UpdateImage sets the source and caption of one image. A nil src clears
// the slot.
func (t *Tree) UpdateImage(id, imageID string, src *string, caption string) (*Tree, error) {
	return t.editImages("update image", id, func(images []domain.Image) ([]domain.Image, error) {
		i := indexOfImage(images, imageID)
		if i < 0 {
			return nil, domain.Addressing("update image", fmt.Errorf("%w: %s", domain.ErrImageNotFound, imageID))
		}
		images[i] = domain.Image{ID: imageID, Src: src, Caption: caption}
		return images, nil
	})
}

func indexOfImage(images []domain.Image, id string) int {
	for i, img := range images {
		if img.ID == id {
			return i
		}
	}
	return -1
}

func (t *Tree) editImages(op, id string, fn func([]domain.Image) ([]domain.Image, error)) (*Tree, error) {
	return t.updateBlock(op, id, func(b domain.Block) (domain.Block, error) {
		g, ok := b.(*domain.ImageGrid)
		if !ok {
			return nil, domain.Refusal(op, fmt.Errorf("%w: %s is %s", domain.ErrFieldMismatch, id, b.Type()))
		}
		images, err := fn(append([]domain.Image(nil), g.Images...))
		if err != nil {
			if domain.KindOf(err) != "" {
				return nil, err
			}
			return nil, domain.Refusal(op, err)
		}
		return domain.Patch{Images: images}.Apply(g)
	})
}
