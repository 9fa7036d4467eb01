package server

import (
	"encoding/json"
	"fmt"
	"os"
)

// PlatformType 平台类型（带标签的变体，碰撞分派按类型穷举）
type PlatformType int

const (
	PlatformDefault PlatformType = iota // 实心平台，缺省或未知类型的回退
	PlatformWood                        // 单向平台，只能从上方落地
	PlatformLava                        // 岩浆，触碰即重生
	PlatformText                        // 装饰文字，无碰撞
)

func (t PlatformType) String() string {
	switch t {
	case PlatformWood:
		return "wood"
	case PlatformLava:
		return "lava"
	case PlatformText:
		return "text"
	default:
		return "default"
	}
}

// UnmarshalJSON 宽松解析：缺省、空串或未知值都视为 default
func (t *PlatformType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*t = PlatformDefault
		return nil
	}
	switch s {
	case "wood":
		*t = PlatformWood
	case "lava":
		*t = PlatformLava
	case "text":
		*t = PlatformText
	default:
		*t = PlatformDefault
	}
	return nil
}

func (t PlatformType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// Point 二维坐标
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect 轴对齐矩形
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Platform 地图平台，加载后不可变
type Platform struct {
	Rect
	Type PlatformType `json:"type"`
}

// DefaultSpawn 地图未声明 spawn 时的出生点
var DefaultSpawn = Point{X: 100, Y: 100}

// GameMap 地图几何：边界、出生点与按声明顺序排列的平台
// Raw 保留原始文档，join 回复时原样下发给客户端
type GameMap struct {
	Width     float64
	Height    float64
	Spawn     Point
	Platforms []Platform

	Raw json.RawMessage
}

type mapDocument struct {
	Width     float64    `json:"width"`
	Height    float64    `json:"height"`
	Spawn     *Point     `json:"spawn"`
	Platforms []Platform `json:"platforms"`
}

// ParseMap 解析地图文档
func ParseMap(data []byte) (*GameMap, error) {
	var doc mapDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse map: %w", err)
	}
	if doc.Width < PlayerSize || doc.Height < PlayerSize {
		return nil, fmt.Errorf("parse map: bounds %vx%v smaller than a player", doc.Width, doc.Height)
	}
	m := &GameMap{
		Width:     doc.Width,
		Height:    doc.Height,
		Spawn:     DefaultSpawn,
		Platforms: doc.Platforms,
		Raw:       append(json.RawMessage(nil), data...),
	}
	if doc.Spawn != nil {
		m.Spawn = *doc.Spawn
	}
	return m, nil
}

// LoadMap 从文件加载地图（启动时一次）
func LoadMap(path string) (*GameMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load map %s: %w", path, err)
	}
	return ParseMap(data)
}
