package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

type newsFile struct {
	News []struct {
		Title string    `yaml:"title"`
		Text  string    `yaml:"text"`
		Date  time.Time `yaml:"date"`
	} `yaml:"news"`
}

// Seed добавляет новости из YAML-документа вида
//
//	news:
//	  - title: Заголовок
//	    text: Текст новости
//	    date: 2023-08-01
//
// Возвращает количество добавленных новостей.
func (s *Service) Seed(ctx context.Context, r io.Reader) (int, error) {
	var nf newsFile
	if err := yaml.NewDecoder(r).Decode(&nf); err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("decode news: %w", err)
	}
	if len(nf.News) == 0 {
		return 0, nil
	}
	news := make([]News, 0, len(nf.News))
	for _, n := range nf.News {
		news = append(news, News{Title: n.Title, Text: n.Text, Date: n.Date})
	}
	if err := s.AddNews(ctx, news...); err != nil {
		return 0, fmt.Errorf("add news: %w", err)
	}
	return len(news), nil
}
