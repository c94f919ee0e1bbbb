package registry

import (
	"fmt"

	"pyth-serum-client/internal/types"

	"github.com/near/borsh-go"
)

// Pyth v2 账户常量，参考 pyth-client/program/src/oracle/oracle.h
const (
	Magic   uint32 = 0xa1b2c3d4
	Version uint32 = 2

	AccountTypeMapping uint32 = 1
	AccountTypeProduct uint32 = 2
	AccountTypePrice   uint32 = 3

	MappingCapacity = 640 // PC_MAP_TABLE_SIZE

	headerSize         = 16
	mappingHeaderSize  = 56
	productHeaderSize  = 48
	MappingAccountSize = mappingHeaderSize + MappingCapacity*32
)

// AccountHeader 所有 Pyth 账户共有的头部
type AccountHeader struct {
	Magic   uint32
	Version uint32
	Type    uint32
	Size    uint32
}

type mappingHeader struct {
	Header AccountHeader
	Num    uint32
	Unused uint32
	Next   types.Pubkey
}

type productHeader struct {
	Header AccountHeader
	Price  types.Pubkey
}

// Page mapping 链表中的一页
type Page struct {
	Num      uint32
	Products []types.Pubkey
	Next     types.Pubkey // 全 0 表示链表结束
}

// Attribute 产品的 key/value 属性
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ProductEntry 注册表中的产品
type ProductEntry struct {
	Address      types.Pubkey `json:"address"`
	PriceAccount types.Pubkey `json:"price_account"`
	Attributes   []Attribute  `json:"attributes"`
}

func (p *ProductEntry) Attr(key string) (string, bool) {
	for _, a := range p.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

func (p *ProductEntry) Symbol() string {
	s, _ := p.Attr("symbol")
	return s
}

func decodeHeader(data []byte, wantType uint32, minSize int) (AccountHeader, error) {
	var h AccountHeader
	if len(data) < headerSize {
		return h, fmt.Errorf("account too short: %d bytes", len(data))
	}
	if err := borsh.Deserialize(&h, data[:headerSize]); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	if h.Magic != Magic {
		return h, fmt.Errorf("bad magic 0x%08x", h.Magic)
	}
	if h.Version != Version {
		return h, fmt.Errorf("unsupported version %d", h.Version)
	}
	if h.Type != wantType {
		return h, fmt.Errorf("account type %d, want %d", h.Type, wantType)
	}
	if int(h.Size) < minSize || int(h.Size) > len(data) {
		return h, fmt.Errorf("declared size %d out of range [%d, %d]", h.Size, minSize, len(data))
	}
	return h, nil
}

// DecodePage 解析 mapping 账户
func DecodePage(data []byte) (*Page, error) {
	if _, err := decodeHeader(data, AccountTypeMapping, mappingHeaderSize); err != nil {
		return nil, err
	}
	var mh mappingHeader
	if err := borsh.Deserialize(&mh, data[:mappingHeaderSize]); err != nil {
		return nil, fmt.Errorf("decode mapping header: %w", err)
	}
	if mh.Num > MappingCapacity {
		return nil, fmt.Errorf("product count %d exceeds capacity %d", mh.Num, MappingCapacity)
	}
	end := mappingHeaderSize + int(mh.Num)*32
	if end > int(mh.Header.Size) {
		return nil, fmt.Errorf("product count %d exceeds declared size %d", mh.Num, mh.Header.Size)
	}

	page := &Page{Num: mh.Num, Next: mh.Next, Products: make([]types.Pubkey, mh.Num)}
	for i := range page.Products {
		off := mappingHeaderSize + i*32
		page.Products[i] = types.PubkeyFromBytes(data[off : off+32])
	}
	return page, nil
}

// DecodeProduct 解析 product 账户
func DecodeProduct(address types.Pubkey, data []byte) (*ProductEntry, error) {
	h, err := decodeHeader(data, AccountTypeProduct, productHeaderSize)
	if err != nil {
		return nil, err
	}
	var ph productHeader
	if err := borsh.Deserialize(&ph, data[:productHeaderSize]); err != nil {
		return nil, fmt.Errorf("decode product header: %w", err)
	}

	entry := &ProductEntry{Address: address, PriceAccount: ph.Price}
	attrs := data[productHeaderSize:h.Size]
	for len(attrs) > 0 {
		k, rest, err := readString(attrs)
		if err != nil {
			return nil, fmt.Errorf("attribute key: %w", err)
		}
		v, rest, err := readString(rest)
		if err != nil {
			return nil, fmt.Errorf("attribute %q value: %w", k, err)
		}
		entry.Attributes = append(entry.Attributes, Attribute{Key: k, Value: v})
		attrs = rest
	}
	return entry, nil
}

// readString u8 长度前缀字符串
func readString(b []byte) (string, []byte, error) {
	if len(b) == 0 {
		return "", nil, fmt.Errorf("missing length byte")
	}
	n := int(b[0])
	if 1+n > len(b) {
		return "", nil, fmt.Errorf("length %d exceeds remaining %d bytes", n, len(b)-1)
	}
	return string(b[1 : 1+n]), b[1+n:], nil
}

// EncodePage 生成 mapping 账户数据（固定容量大小）
func EncodePage(products []types.Pubkey, next types.Pubkey) ([]byte, error) {
	if len(products) > MappingCapacity {
		return nil, fmt.Errorf("too many products: %d", len(products))
	}
	head, err := borsh.Serialize(mappingHeader{
		Header: AccountHeader{
			Magic:   Magic,
			Version: Version,
			Type:    AccountTypeMapping,
			Size:    uint32(mappingHeaderSize + len(products)*32),
		},
		Num:  uint32(len(products)),
		Next: next,
	})
	if err != nil {
		return nil, err
	}
	data := make([]byte, MappingAccountSize)
	copy(data, head)
	for i, p := range products {
		copy(data[mappingHeaderSize+i*32:], p[:])
	}
	return data, nil
}

// EncodeProduct 生成 product 账户数据
func EncodeProduct(price types.Pubkey, attrs []Attribute) ([]byte, error) {
	body := make([]byte, 0, 128)
	for _, a := range attrs {
		if len(a.Key) > 255 || len(a.Value) > 255 {
			return nil, fmt.Errorf("attribute %q too long", a.Key)
		}
		body = append(body, byte(len(a.Key)))
		body = append(body, a.Key...)
		body = append(body, byte(len(a.Value)))
		body = append(body, a.Value...)
	}
	head, err := borsh.Serialize(productHeader{
		Header: AccountHeader{
			Magic:   Magic,
			Version: Version,
			Type:    AccountTypeProduct,
			Size:    uint32(productHeaderSize + len(body)),
		},
		Price: price,
	})
	if err != nil {
		return nil, err
	}
	// 链上 product 账户固定 512 字节
	data := make([]byte, max(512, len(head)+len(body)))
	copy(data, head)
	copy(data[productHeaderSize:], body)
	return data, nil
}
