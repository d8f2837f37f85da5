package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// BlockType is the discriminant of a page block.
type BlockType string

const (
	BlockHero      BlockType = "hero"
	BlockFAQ       BlockType = "faq"
	BlockTextImage BlockType = "text_image"
	BlockCTA       BlockType = "cta"
	BlockSwiper    BlockType = "swiper"
)

// BlockTypes lists every supported block type in display order.
var BlockTypes = []BlockType{BlockHero, BlockFAQ, BlockTextImage, BlockCTA, BlockSwiper}

func ParseBlockType(raw string) (BlockType, error) {
	t := BlockType(strings.TrimSpace(raw))
	for _, known := range BlockTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown block_type %q", raw)
}

// BlockContent is implemented by exactly one payload per BlockType.
type BlockContent interface {
	BlockType() BlockType
}

type HeroContent struct {
	Title           string `json:"title" yaml:"title"`
	Subtitle        string `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	BackgroundImage string `json:"background_image,omitempty" yaml:"backgroundImage,omitempty"`
	CTAText         string `json:"cta_text,omitempty" yaml:"ctaText,omitempty"`
	CTALink         string `json:"cta_link,omitempty" yaml:"ctaLink,omitempty"`
}

type FAQItem struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

type FAQContent struct {
	Title string    `json:"title,omitempty" yaml:"title,omitempty"`
	Items []FAQItem `json:"items" yaml:"items"`
}

type TextImageContent struct {
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	// Text is markdown or a restricted HTML fragment.
	Text          string `json:"text" yaml:"text"`
	ImageURL      string `json:"image_url,omitempty" yaml:"imageUrl,omitempty"`
	ImageAlt      string `json:"image_alt,omitempty" yaml:"imageAlt,omitempty"`
	ImagePosition string `json:"image_position,omitempty" yaml:"imagePosition,omitempty"`
}

type CTAContent struct {
	Title      string `json:"title" yaml:"title"`
	Text       string `json:"text,omitempty" yaml:"text,omitempty"`
	ButtonText string `json:"button_text" yaml:"buttonText"`
	ButtonLink string `json:"button_link" yaml:"buttonLink"`
}

type Slide struct {
	ImageURL string `json:"image_url" yaml:"imageUrl"`
	Caption  string `json:"caption,omitempty" yaml:"caption,omitempty"`
	Link     string `json:"link,omitempty" yaml:"link,omitempty"`
}

type SwiperContent struct {
	Title    string  `json:"title,omitempty" yaml:"title,omitempty"`
	Slides   []Slide `json:"slides" yaml:"slides"`
	Autoplay bool    `json:"autoplay,omitempty" yaml:"autoplay,omitempty"`
}

func (HeroContent) BlockType() BlockType      { return BlockHero }
func (FAQContent) BlockType() BlockType       { return BlockFAQ }
func (TextImageContent) BlockType() BlockType { return BlockTextImage }
func (CTAContent) BlockType() BlockType       { return BlockCTA }
func (SwiperContent) BlockType() BlockType    { return BlockSwiper }

// NewBlockContent returns an empty payload for t.
func NewBlockContent(t BlockType) (BlockContent, error) {
	switch t {
	case BlockHero:
		return &HeroContent{}, nil
	case BlockFAQ:
		return &FAQContent{}, nil
	case BlockTextImage:
		return &TextImageContent{}, nil
	case BlockCTA:
		return &CTAContent{}, nil
	case BlockSwiper:
		return &SwiperContent{}, nil
	default:
		return nil, fmt.Errorf("unknown block_type %q", t)
	}
}

// deref turns the pointer produced by NewBlockContent back into a value payload.
func deref(c BlockContent) BlockContent {
	switch v := c.(type) {
	case *HeroContent:
		return *v
	case *FAQContent:
		return *v
	case *TextImageContent:
		return *v
	case *CTAContent:
		return *v
	case *SwiperContent:
		return *v
	}
	return c
}

// Block is one ordered content unit of a page. Content always holds a value
// payload whose BlockType matches Type.
type Block struct {
	ID      int
	Type    BlockType
	Order   int
	Content BlockContent
}

type blockJSON struct {
	ID      int             `json:"id,omitempty"`
	Type    BlockType       `json:"block_type"`
	Order   int             `json:"order"`
	Content json.RawMessage `json:"content"`
}

func (b Block) MarshalJSON() ([]byte, error) {
	t, err := b.resolvedType()
	if err != nil {
		return nil, err
	}
	content, err := json.Marshal(b.Content)
	if err != nil {
		return nil, fmt.Errorf("encode %s block content: %w", t, err)
	}
	return json.Marshal(blockJSON{ID: b.ID, Type: t, Order: b.Order, Content: content})
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var raw blockJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t, err := ParseBlockType(string(raw.Type))
	if err != nil {
		return err
	}
	content, err := NewBlockContent(t)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(raw.Content)) > 0 && !bytes.Equal(bytes.TrimSpace(raw.Content), []byte("null")) {
		dec := json.NewDecoder(bytes.NewReader(raw.Content))
		if err := dec.Decode(content); err != nil {
			return fmt.Errorf("decode %s block content: %w", t, err)
		}
	}
	*b = Block{ID: raw.ID, Type: t, Order: raw.Order, Content: deref(content)}
	return nil
}

type blockYAML struct {
	ID      int       `yaml:"id,omitempty"`
	Type    BlockType `yaml:"type"`
	Order   int       `yaml:"order,omitempty"`
	Content yaml.Node `yaml:"content"`
}

func (b Block) MarshalYAML() (any, error) {
	t, err := b.resolvedType()
	if err != nil {
		return nil, err
	}
	var node yaml.Node
	if err := node.Encode(b.Content); err != nil {
		return nil, fmt.Errorf("encode %s block content: %w", t, err)
	}
	return blockYAML{ID: b.ID, Type: t, Order: b.Order, Content: node}, nil
}

func (b *Block) UnmarshalYAML(value *yaml.Node) error {
	var raw blockYAML
	if err := value.Decode(&raw); err != nil {
		return err
	}
	t, err := ParseBlockType(string(raw.Type))
	if err != nil {
		return err
	}
	content, err := NewBlockContent(t)
	if err != nil {
		return err
	}
	if raw.Content.Kind != 0 {
		if err := raw.Content.Decode(content); err != nil {
			return fmt.Errorf("decode %s block content: %w", t, err)
		}
	}
	*b = Block{ID: raw.ID, Type: t, Order: raw.Order, Content: deref(content)}
	return nil
}

func (b Block) resolvedType() (BlockType, error) {
	if b.Content == nil {
		return "", fmt.Errorf("block %d has no content", b.ID)
	}
	t := b.Content.BlockType()
	if b.Type != "" && b.Type != t {
		return "", fmt.Errorf("block %d: type %q does not match %q content", b.ID, b.Type, t)
	}
	return t, nil
}
